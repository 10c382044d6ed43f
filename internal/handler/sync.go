package handler

import (
	"encoding/json"
	"net/http"

	"occurrences/internal/dto"
	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/services"
)

// SyncHandler drains the offline queue.
func SyncHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		result, err := manager.Sync(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// ConnectivityHandler receives the browser's online/offline events.
func ConnectivityHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, logger, http.StatusOK, dto.Connectivity{Online: manager.Online()})
		case http.MethodPost:
			var req dto.Connectivity
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, logger, &model.ValidationError{Field: "body", Err: err})
				return
			}
			if err := manager.SetOnline(r.Context(), req.Online); err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, logger, http.StatusOK, req)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// PreferencesHandler reads or stores the dark mode preference.
func PreferencesHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			prefs, err := manager.Preferences(r.Context())
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, logger, http.StatusOK, prefs)
		case http.MethodPost:
			var prefs dto.Preferences
			if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
				writeError(w, logger, &model.ValidationError{Field: "body", Err: err})
				return
			}
			if err := manager.SetPreferences(r.Context(), prefs); err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, logger, http.StatusOK, prefs)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
