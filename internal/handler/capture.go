package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/services/capture"
	"occurrences/internal/services/geo"
	"occurrences/internal/services/imaging"
)

const maxUploadMemory = 32 << 20

// CaptureFrameHandler grabs a frame from the live camera into the preview.
func CaptureFrameHandler(coordinator *capture.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if _, err := coordinator.CaptureFrame(r.Context()); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, coordinator.State())
	}
}

// UploadHandler accepts a single image file in the multipart field "image".
func UploadHandler(coordinator *capture.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+maxUploadMemory)
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, logger, &model.ValidationError{Field: "image", Err: err})
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, logger, &model.ValidationError{Field: "image", Err: err})
			return
		}
		defer file.Close()

		if _, err := coordinator.Upload(file); err != nil {
			writeError(w, logger, err)
			return
		}
		logger.Info("Image uploaded: %s (%d bytes)", header.Filename, header.Size)
		writeJSON(w, logger, http.StatusOK, coordinator.State())
	}
}

// CancelCaptureHandler discards the preview.
func CancelCaptureHandler(coordinator *capture.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		coordinator.Cancel()
		writeJSON(w, logger, http.StatusOK, coordinator.State())
	}
}

// SwitchCameraHandler moves to the next camera.
func SwitchCameraHandler(coordinator *capture.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if err := coordinator.SwitchDevice(r.Context()); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, coordinator.State())
	}
}

// CaptureStateHandler reports the capture state, preview and cameras.
func CaptureStateHandler(coordinator *capture.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, coordinator.State())
	}
}

// SaveCaptureHandler turns the preview into an occurrence. The browser may
// send its own position as latitude/longitude, or geoError when it failed.
func SaveCaptureHandler(coordinator *capture.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, logger, &model.ValidationError{Field: "form", Err: err})
			return
		}

		locator, err := clientLocator(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		record, err := coordinator.Confirm(r.Context(),
			r.FormValue("comment"), r.FormValue("category"), r.FormValue("priority"), locator)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, record)
	}
}

// clientLocator returns nil when the browser sent no position information, so
// the coordinator falls back to its configured provider.
func clientLocator(r *http.Request) (geo.Provider, error) {
	lat := strings.TrimSpace(r.FormValue("latitude"))
	lon := strings.TrimSpace(r.FormValue("longitude"))
	reason := strings.TrimSpace(r.FormValue("geoError"))

	if lat == "" && lon == "" {
		if reason == "" {
			return nil, nil
		}
		return geo.Client{Reason: reason}, nil
	}
	if lat == "" || lon == "" {
		return nil, &model.ValidationError{Field: "location", Err: errors.New("latitude and longitude must be sent together")}
	}

	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, &model.ValidationError{Field: "latitude", Err: err}
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, &model.ValidationError{Field: "longitude", Err: err}
	}
	return geo.Client{Position: &model.Coordinates{Latitude: latitude, Longitude: longitude}}, nil
}
