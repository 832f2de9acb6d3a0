package csvsource

import (
	"context"
	"strings"

	"github.com/couchcryptid/quake-compass/internal/domain"
)

// fallbackCSV is served when the primary source cannot be read.
const fallbackCSV = `id,time,latitude,longitude,depth,mag,location,country,type,status,tsunami,sig,net
us70006vkq,1578377119759,2.3481,96.3575,17,6.3,14 km S of Sinabang,Indonesia,earthquake,reviewed,0,619,us
pr2020007007,1578385467370,17.9578,-66.8113,6,6.4,4 km SSE of Indios,Puerto Rico,earthquake,reviewed,1,1820,pr
us70006vvr,1578424295665,-5.2046,151.2659,117,6,130 km ENE of Kimbe,Papua New Guinea,earthquake,reviewed,0,554,us
us70006wuf,1578559088278,62.358,171.0611,10,6.4,Chukotskiy Avtonomnyy Okrug,Russia,earthquake,reviewed,0,630,us
us60007a3h,1579365494301,-2.8405,139.3363,44,6,146 km W of Abepura,Indonesia,earthquake,reviewed,0,555,us
us60007anp,1579440476630,39.8353,77.1084,5.55,6,104 km ENE of Kashgar,China,earthquake,reviewed,0,1006,us
us60007arp,1579453100002,-0.1042,123.8025,121.72,6.1,108 km SE of Gorontalo,Indonesia,earthquake,reviewed,0,574,us
`

// Fallback is the built-in seven-event dataset.
type Fallback struct{}

// Name identifies the source in logs and snapshots.
func (Fallback) Name() string { return "builtin-fallback" }

// Load parses the embedded dataset.
func (Fallback) Load(_ context.Context) ([]domain.RawRecord, error) {
	return Parse(strings.NewReader(fallbackCSV))
}
