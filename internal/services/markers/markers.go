// Package markers builds the map layer from located records.
package markers

import (
	"time"
	"unicode/utf8"

	geojson "github.com/paulmach/go.geojson"
	"github.com/shopspring/decimal"

	"occurrences/internal/model"
	"occurrences/internal/services/geo"
)

const (
	ColorResolved = "green"
	ColorUrgent   = "red"
	ColorDefault  = "blue"

	// LabelLength is how many characters of the comment a popup shows.
	LabelLength = 50

	DateLayout = "Jan 2, 2006"
)

// Color picks the marker color: resolved wins over urgent.
func Color(r *model.Record) string {
	switch {
	case r.Status == model.StatusResolved:
		return ColorResolved
	case r.Priority == model.PriorityUrgent:
		return ColorUrgent
	default:
		return ColorDefault
	}
}

// Truncate shortens s to n characters followed by "..." when it is longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// FormatCoordinate renders a degree value with six fixed decimals.
func FormatCoordinate(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(6)
}

// Build returns a point feature per record that has coordinates, in input
// order. The collection's bbox covers every feature and is omitted when empty.
func Build(records []model.Record, loc *time.Location) *geojson.FeatureCollection {
	if loc == nil {
		loc = time.UTC
	}

	fc := geojson.NewFeatureCollection()
	for i := range records {
		r := &records[i]
		if !r.HasLocation() {
			continue
		}

		f := geojson.NewPointFeature([]float64{*r.Longitude, *r.Latitude})
		f.ID = r.ID
		f.SetProperty("id", r.ID)
		f.SetProperty("color", Color(r))
		f.SetProperty("date", r.CreatedAt().In(loc).Format(DateLayout))
		f.SetProperty("label", Truncate(r.Comment, LabelLength))
		f.SetProperty("status", string(r.Status))
		f.SetProperty("category", r.Category.Label())
		f.SetProperty("priority", r.Priority.Label())
		f.SetProperty("position", FormatCoordinate(*r.Latitude)+", "+FormatCoordinate(*r.Longitude))
		fc.AddFeature(f)
	}

	if sw, ne, ok := geo.Bounds(records); ok {
		fc.BoundingBox = []float64{sw.Longitude, sw.Latitude, ne.Longitude, ne.Latitude}
	}
	return fc
}
