package services

import (
	"fmt"
	"time"

	"occurrences/internal/dto"
	"occurrences/internal/model"
	"occurrences/internal/services/markers"
)

const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006 15:04"

	noLocation   = "Location not available"
	emptyGallery = "No occurrences found with the selected filters"
)

var priorityClasses = map[model.Priority]string{
	model.PriorityLow:    "bg-blue-600",
	model.PriorityMedium: "bg-yellow-600",
	model.PriorityHigh:   "bg-orange-600",
	model.PriorityUrgent: "bg-red-600",
}

func priorityClass(p model.Priority) string {
	if class, ok := priorityClasses[p]; ok {
		return class
	}
	return "bg-gray-600"
}

func statusClass(s model.Status) string {
	if s == model.StatusResolved {
		return "bg-green-600"
	}
	return "bg-red-600"
}

func newRecordView(r model.Record, loc *time.Location) dto.RecordView {
	created := r.CreatedAt().In(loc)
	v := dto.RecordView{
		Record:        r,
		CategoryLabel: r.Category.Label(),
		PriorityLabel: r.Priority.Label(),
		StatusClass:   statusClass(r.Status),
		PriorityClass: priorityClass(r.Priority),
		Date:          created.Format(dateLayout),
		DateTime:      created.Format(dateTimeLayout),
		Location:      noLocation,
		HasLocation:   r.HasLocation(),
	}
	if v.HasLocation {
		v.Location = fmt.Sprintf("Lat: %s, Long: %s",
			markers.FormatCoordinate(*r.Latitude), markers.FormatCoordinate(*r.Longitude))
	}
	return v
}

func countLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}

func newGalleryView(records []model.Record, criteria dto.RecordFilters, loc *time.Location) dto.GalleryView {
	view := dto.GalleryView{
		Items:      make([]dto.RecordView, 0, len(records)),
		Count:      len(records),
		CountLabel: countLabel(len(records)),
		Filters:    criteria,
	}
	for _, r := range records {
		view.Items = append(view.Items, newRecordView(r, loc))
	}
	if len(records) == 0 {
		view.EmptyMessage = emptyGallery
	}
	return view
}
