package markers

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"occurrences/internal/model"
)

func located(id int64, status model.Status, pri model.Priority, lat, lon float64) model.Record {
	r := model.Record{ID: id, Status: status, Priority: pri, Category: model.CategoryOther, Comment: "c"}
	r.SetLocation(model.Coordinates{Latitude: lat, Longitude: lon})
	return r
}

func TestColor(t *testing.T) {
	tests := []struct {
		status   model.Status
		priority model.Priority
		expected string
	}{
		{model.StatusResolved, model.PriorityUrgent, ColorResolved},
		{model.StatusUnresolved, model.PriorityUrgent, ColorUrgent},
		{model.StatusUnresolved, model.PriorityHigh, ColorDefault},
		{model.StatusResolved, model.PriorityLow, ColorResolved},
	}

	for _, tt := range tests {
		r := model.Record{Status: tt.status, Priority: tt.priority}
		if got := Color(&r); got != tt.expected {
			t.Errorf("Color(%s, %s) = %s, expected %s", tt.status, tt.priority, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	exact := strings.Repeat("a", 50)
	if got := Truncate(exact, 50); got != exact {
		t.Errorf("50 chars should not be truncated")
	}
	if got := Truncate(exact+"b", 50); got != exact+"..." {
		t.Errorf("Truncate = %q", got)
	}
	accented := strings.Repeat("é", 51)
	if got := Truncate(accented, 50); got != strings.Repeat("é", 50)+"..." {
		t.Errorf("Truncate split a multi-byte character: %q", got)
	}
}

func TestFormatCoordinate(t *testing.T) {
	if got := FormatCoordinate(-23.55); got != "-23.550000" {
		t.Errorf("FormatCoordinate = %s", got)
	}
}

func TestBuild_SkipsUnlocated(t *testing.T) {
	records := []model.Record{
		located(1, model.StatusUnresolved, model.PriorityUrgent, -23.55, -46.63),
		{ID: 2, Status: model.StatusUnresolved, Comment: "no gps"},
		located(3, model.StatusResolved, model.PriorityLow, -22.9, -43.17),
	}

	fc := Build(records, time.UTC)
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, expected 2", len(fc.Features))
	}
	if c := fc.Features[0].PropertyMustString("color"); c != ColorUrgent {
		t.Errorf("first marker color = %s", c)
	}
	if p := fc.Features[0].Geometry.Point; p[0] != -46.63 || p[1] != -23.55 {
		t.Errorf("point = %v, expected lon,lat order", p)
	}

	if len(fc.BoundingBox) != 4 {
		t.Fatalf("bbox = %v", fc.BoundingBox)
	}
	expected := []float64{-46.63, -23.55, -43.17, -22.9}
	for i := range expected {
		if math.Abs(fc.BoundingBox[i]-expected[i]) > 1e-9 {
			t.Errorf("bbox = %v, expected %v", fc.BoundingBox, expected)
			break
		}
	}
}

func TestBuild_EmptyHasNoBBox(t *testing.T) {
	fc := Build([]model.Record{{ID: 1}}, nil)
	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "bbox") {
		t.Errorf("empty collection has bbox: %s", data)
	}
	if len(fc.Features) != 0 {
		t.Errorf("features = %d, expected 0", len(fc.Features))
	}
}
