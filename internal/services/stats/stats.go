// Package stats summarises a record collection for the dashboard.
package stats

import (
	"math"

	"occurrences/internal/dto"
	"occurrences/internal/model"
)

// Aggregate counts records by status, priority and category. Every known
// category is present in PerCategory, including empty ones; Categories holds
// the visible (non-empty) subset in display order.
func Aggregate(records []model.Record) dto.RecordStats {
	s := dto.RecordStats{
		Total:       len(records),
		PerCategory: make(map[model.Category]dto.CategoryStats, len(model.Categories)),
	}

	for _, c := range model.Categories {
		s.PerCategory[c] = dto.CategoryStats{Category: c, Label: c.Label()}
	}

	for _, r := range records {
		resolved := r.Status == model.StatusResolved
		if resolved {
			s.Resolved++
		}
		if r.Priority == model.PriorityUrgent {
			s.Urgent++
		}

		cs, ok := s.PerCategory[r.Category]
		if !ok {
			continue
		}
		cs.Count++
		if resolved {
			cs.ResolvedCount++
		}
		s.PerCategory[r.Category] = cs
	}
	s.Pending = s.Total - s.Resolved

	for _, c := range model.Categories {
		cs := s.PerCategory[c]
		cs.Percent = Percent(cs.ResolvedCount, cs.Count)
		s.PerCategory[c] = cs
	}
	s.Categories = Visible(s)

	return s
}

// Percent returns round(part/whole*100), or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Visible returns the categories that have at least one record.
func Visible(s dto.RecordStats) []dto.CategoryStats {
	out := make([]dto.CategoryStats, 0, len(model.Categories))
	for _, c := range model.Categories {
		if cs, ok := s.PerCategory[c]; ok && cs.Count > 0 {
			out = append(out, cs)
		}
	}
	return out
}
