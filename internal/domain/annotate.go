package domain

import (
	"fmt"
	"slices"
	"strconv"
)

// MarkerKind separates computed region markers from static predictions.
type MarkerKind string

const (
	MarkerObserved  MarkerKind = "observed"
	MarkerPredicted MarkerKind = "predicted"
)

// MarkerShape tells the renderer which icon to draw.
type MarkerShape string

const (
	ShapeCircle MarkerShape = "circle"
	ShapeLabel  MarkerShape = "label"
)

// Fixed style for prediction markers, distinct from every region marker.
const (
	PredictedColor  = "#10b981"
	PredictedWidth  = 140
	PredictedHeight = 30
)

// Marker is one renderable overlay entry.
type Marker struct {
	Kind      MarkerKind  `json:"kind"`
	Shape     MarkerShape `json:"shape"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Color     string      `json:"color"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Text      string      `json:"text"`
	Popup     Popup       `json:"popup"`
}

// Merge builds the renderable marker list: one observed marker per region,
// ordered by region name, followed by every annotation in its configured
// order. Annotations are passed through untouched; they are never filtered
// or checked against the observed events.
func Merge(regions map[string]RegionSummary, annotations []PredictionAnnotation) []Marker {
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	slices.Sort(names)

	markers := make([]Marker, 0, len(names)+len(annotations))
	for _, name := range names {
		r := regions[name]
		markers = append(markers, Marker{
			Kind:      MarkerObserved,
			Shape:     ShapeCircle,
			Latitude:  r.CentroidLat,
			Longitude: r.CentroidLon,
			Color:     r.Encoding.Color,
			Width:     r.Encoding.MarkerSize,
			Height:    r.Encoding.MarkerSize,
			Text:      strconv.Itoa(r.RecordCount),
			Popup:     r.Encoding.Popup,
		})
	}

	for _, a := range annotations {
		mag := formatMagnitude(a.Magnitude)
		markers = append(markers, Marker{
			Kind:      MarkerPredicted,
			Shape:     ShapeLabel,
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
			Color:     PredictedColor,
			Width:     PredictedWidth,
			Height:    PredictedHeight,
			Text:      fmt.Sprintf("Predicted: %s Mag", mag),
			Popup: Popup{
				Title: a.Label,
				Lines: []PopupLine{
					{Label: "Predicted Magnitude", Value: mag},
					{Label: "Year", Value: strconv.Itoa(a.Year)},
				},
			},
		})
	}
	return markers
}
