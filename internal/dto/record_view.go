package dto

import "occurrences/internal/model"

// RecordView is a record decorated with everything a card or the details
// view needs to render it.
type RecordView struct {
	model.Record
	CategoryLabel string `json:"categoryLabel"`
	PriorityLabel string `json:"priorityLabel"`
	StatusClass   string `json:"statusClass"`
	PriorityClass string `json:"priorityClass"`
	Date          string `json:"date"`
	DateTime      string `json:"dateTime"`
	Location      string `json:"location"`
	HasLocation   bool   `json:"hasLocation"`
}

// GalleryView is the filtered gallery.
type GalleryView struct {
	Items        []RecordView  `json:"items"`
	Count        int           `json:"count"`
	CountLabel   string        `json:"countLabel"`
	Filters      RecordFilters `json:"filters"`
	EmptyMessage string        `json:"emptyMessage,omitempty"`
}

// Preferences are the persisted presentation settings.
type Preferences struct {
	DarkMode bool `json:"darkMode"`
}

// Connectivity reports the network state seen by the presentation layer.
type Connectivity struct {
	Online bool `json:"online"`
}

// ConfirmRequest answers a pending confirmation prompt.
type ConfirmRequest struct {
	Token  string `json:"token"`
	Accept bool   `json:"accept"`
}
