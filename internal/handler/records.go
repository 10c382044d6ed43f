package handler

import (
	"encoding/json"
	"net/http"

	"occurrences/internal/dto"
	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/services"
	"occurrences/internal/services/filter"
)

// GetRecordsHandler answers GET with the gallery for the query string, leaving
// the shared filter alone. POST makes the form criteria the active filter that
// every viewer's gallery is rendered with.
func GetRecordsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, logger, http.StatusOK, manager.Query(filter.ParseCriteria(r.URL.Query())))
		case http.MethodPost:
			if err := r.ParseForm(); err != nil {
				writeError(w, logger, &model.ValidationError{Field: "form", Err: err})
				return
			}
			writeJSON(w, logger, http.StatusOK, manager.ApplyFilter(filter.ParseCriteria(r.Form)))
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// RecordDetailHandler returns one record with its display fields.
func RecordDetailHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		view, err := manager.Record(id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, view)
	}
}

// ToggleStatusHandler flips a record between Unresolved and Resolved.
func ToggleStatusHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		id, err := parseID(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		view, err := manager.ToggleStatus(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		logger.Info("Occurrence %d marked %s", id, view.Status)
		writeJSON(w, logger, http.StatusOK, view)
	}
}

// DeleteRecordHandler opens a confirmation prompt; nothing is removed until
// the prompt is accepted through ConfirmHandler.
func DeleteRecordHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		id, err := parseID(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		prompt, err := manager.RequestDelete(id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusAccepted, prompt)
	}
}

// ConfirmHandler accepts or cancels the pending confirmation.
func ConfirmHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		var req dto.ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, &model.ValidationError{Field: "body", Err: err})
			return
		}

		if err := manager.ResolveConfirmation(req.Token, req.Accept); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]bool{"accepted": req.Accept})
	}
}

// GetStatsHandler returns the dashboard counters.
func GetStatsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, manager.Stats())
	}
}

// GetMarkersHandler returns located records as a GeoJSON FeatureCollection.
func GetMarkersHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := manager.Markers().MarshalJSON()
		if err != nil {
			writeError(w, logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write(data)
	}
}
