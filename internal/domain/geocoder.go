package domain

import "context"

// RegionResolver names the region containing a coordinate, e.g. through a
// reverse-geocoding provider. An empty name with a nil error means the
// provider found nothing.
type RegionResolver interface {
	ResolveRegion(ctx context.Context, lat, lon float64) (string, error)
}
