package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"occurrences/internal/logger"
	"occurrences/internal/services"
	"occurrences/internal/services/export"
)

// ExportJSONHandler downloads every record as indented JSON.
func ExportJSONHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return exportHandler(export.FormatJSON, manager.ExportJSON, logger)
}

// ExportCSVHandler downloads every record as CSV.
func ExportCSVHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return exportHandler(export.FormatCSV, manager.ExportCSV, logger)
}

func exportHandler(format string, write func(io.Writer) (string, error), logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		name, err := write(&buf)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := buf.WriteTo(w); err != nil {
			logger.Error("Error writing %s export: %v", format, err)
		}
	}
}
