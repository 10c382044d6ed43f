// RecordFilters describe user-provided criteria to narrow the gallery.
package dto

import "occurrences/internal/model"

// DateBucket selects records created since the start of the current day, week or month.
type DateBucket string

const (
	DateToday DateBucket = "today"
	DateWeek  DateBucket = "week"
	DateMonth DateBucket = "month"
)

// FilterAll is the value the presentation layer sends for "no filter".
const FilterAll = "all"

type RecordFilters struct {
	Status   model.Status   `json:"status,omitempty"`
	Category model.Category `json:"category,omitempty"`
	Priority model.Priority `json:"priority,omitempty"`
	Date     DateBucket     `json:"date,omitempty"`
	Search   string         `json:"search,omitempty"`
}

// IsZero reports whether no predicate is active.
func (f RecordFilters) IsZero() bool {
	return f == RecordFilters{}
}
