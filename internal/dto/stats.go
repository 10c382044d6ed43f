package dto

import "occurrences/internal/model"

// CategoryStats counts records of one category.
type CategoryStats struct {
	Category      model.Category `json:"category"`
	Label         string         `json:"label"`
	Count         int            `json:"count"`
	ResolvedCount int            `json:"resolvedCount"`
	Percent       int            `json:"percent"`
}

// RecordStats is the dashboard summary.
type RecordStats struct {
	Total       int                              `json:"total"`
	Resolved    int                              `json:"resolved"`
	Pending     int                              `json:"pending"`
	Urgent      int                              `json:"urgent"`
	PerCategory map[model.Category]CategoryStats `json:"-"`
	Categories  []CategoryStats                  `json:"categories"`
}
