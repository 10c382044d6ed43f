package model

import (
	"strings"
	"time"
)

// Status is the resolution state of a record.
type Status string

const (
	StatusUnresolved Status = "Unresolved"
	StatusResolved   Status = "Resolved"
)

// Valid reports whether s is one of the two known states.
func (s Status) Valid() bool {
	return s == StatusUnresolved || s == StatusResolved
}

// Toggled returns the opposite state.
func (s Status) Toggled() Status {
	if s == StatusResolved {
		return StatusUnresolved
	}
	return StatusResolved
}

// Category classifies what kind of occurrence was reported.
type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategorySecurity       Category = "security"
	CategoryEnvironment    Category = "environment"
	CategoryTraffic        Category = "traffic"
	CategoryOther          Category = "other"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryInfrastructure,
	CategorySecurity,
	CategoryEnvironment,
	CategoryTraffic,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryInfrastructure: "Infrastructure",
	CategorySecurity:       "Security",
	CategoryEnvironment:    "Environment",
	CategoryTraffic:        "Traffic",
	CategoryOther:          "Other",
}

// Label returns the human readable name, or the raw value for unknown categories.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Priority is how urgently an occurrence needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every known priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var priorityLabels = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
	PriorityUrgent: "Urgent",
}

// Label returns the human readable name, or the raw value for unknown priorities.
func (p Priority) Label() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return string(p)
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// ParseCategory normalizes user input into a Category.
func ParseCategory(v string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(v)))
	return c, c.Valid()
}

// ParsePriority normalizes user input into a Priority.
func ParsePriority(v string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	return p, p.Valid()
}

// Record is one reported occurrence. Only Status may change after creation.
type Record struct {
	ID        int64    `json:"id"`
	Image     string   `json:"image"`
	Comment   string   `json:"comment"`
	Status    Status   `json:"status"`
	Category  Category `json:"category"`
	Priority  Priority `json:"priority"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// HasLocation reports whether both coordinates are present.
func (r *Record) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// CreatedAt converts the id back into the creation instant.
func (r *Record) CreatedAt() time.Time {
	return time.UnixMilli(r.ID)
}

// SetLocation attaches a coordinate pair.
func (r *Record) SetLocation(c Coordinates) {
	lat, lon := c.Latitude, c.Longitude
	r.Latitude = &lat
	r.Longitude = &lon
}

// Clone returns a deep copy so callers never share coordinate pointers with the store.
func (r Record) Clone() Record {
	if r.Latitude != nil {
		lat := *r.Latitude
		r.Latitude = &lat
	}
	if r.Longitude != nil {
		lon := *r.Longitude
		r.Longitude = &lon
	}
	return r
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TimestampLayout is the ISO-8601 layout stored in Record.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders the creation instant for a millisecond id.
func FormatTimestamp(id int64) string {
	return time.UnixMilli(id).UTC().Format(TimestampLayout)
}
