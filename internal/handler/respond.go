package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/services/notify"
)

// writeJSON encodes data with the given status code.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := http.StatusInternalServerError

	var (
		validation  *model.ValidationError
		device      *model.DeviceError
		persistence *model.PersistenceError
	)
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, notify.ErrStaleToken):
		status = http.StatusConflict
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &device):
		status = http.StatusServiceUnavailable
	case errors.As(err, &persistence):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}
	writeJSON(w, logger, status, map[string]string{"error": err.Error()})
}

// requireMethod rejects requests whose method is not method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// parseID reads the id query parameter.
func parseID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, &model.ValidationError{Field: "id", Err: errors.New("id required")}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: "id", Err: err}
	}
	return id, nil
}
