// Package filter narrows and orders the gallery. Everything here is pure.
package filter

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"occurrences/internal/dto"
	"occurrences/internal/model"
)

// Apply runs the active predicates in a fixed order (status, category,
// priority, date bucket, search) and returns a new slice sorted newest first.
// records is never modified. Date buckets are computed against now in now's location.
func Apply(records []model.Record, criteria dto.RecordFilters, now time.Time) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}

	if criteria.Status != "" && string(criteria.Status) != dto.FilterAll {
		out = keep(out, func(r *model.Record) bool { return r.Status == criteria.Status })
	}

	if criteria.Category != "" && string(criteria.Category) != dto.FilterAll {
		out = keep(out, func(r *model.Record) bool { return r.Category == criteria.Category })
	}

	if criteria.Priority != "" && string(criteria.Priority) != dto.FilterAll {
		out = keep(out, func(r *model.Record) bool { return r.Priority == criteria.Priority })
	}

	if start, ok := BucketStart(criteria.Date, now); ok {
		out = keep(out, func(r *model.Record) bool { return !r.CreatedAt().Before(start) })
	}

	if term := strings.ToLower(strings.TrimSpace(criteria.Search)); term != "" {
		out = keep(out, func(r *model.Record) bool {
			return strings.Contains(strings.ToLower(r.Comment), term) ||
				strings.Contains(strings.ToLower(r.Category.Label()), term) ||
				strings.Contains(strings.ToLower(r.Priority.Label()), term)
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// BucketStart returns the inclusive lower bound of a date bucket. ok is false
// for an empty or unknown bucket.
func BucketStart(bucket dto.DateBucket, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch bucket {
	case dto.DateToday:
		return today, true
	case dto.DateWeek:
		return today.AddDate(0, 0, -int(today.Weekday())), true
	case dto.DateMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// ParseCriteria reads criteria from query parameters; "all" and unknown enum
// values are treated as unset.
func ParseCriteria(q url.Values) dto.RecordFilters {
	var f dto.RecordFilters

	if s := model.Status(strings.TrimSpace(q.Get("status"))); s.Valid() {
		f.Status = s
	}
	if c, ok := model.ParseCategory(q.Get("category")); ok {
		f.Category = c
	}
	if p, ok := model.ParsePriority(q.Get("priority")); ok {
		f.Priority = p
	}
	switch b := dto.DateBucket(strings.ToLower(strings.TrimSpace(q.Get("date")))); b {
	case dto.DateToday, dto.DateWeek, dto.DateMonth:
		f.Date = b
	}
	f.Search = strings.TrimSpace(q.Get("search"))

	return f
}

func keep(records []model.Record, pred func(*model.Record) bool) []model.Record {
	out := records[:0]
	for i := range records {
		if pred(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
