package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"occurrences/internal/config"
	"occurrences/internal/handler"
	"occurrences/internal/logger"
	"occurrences/internal/middleware"
	"occurrences/internal/services"
	"occurrences/internal/services/capture"
	"occurrences/internal/services/websocket"
)

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers static file serving, the API and the log endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(manager *services.Manager, coordinator *capture.Coordinator, hub *websocket.HubService, cfg *config.Config, l *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// Records
	mux.HandleFunc("/api/records", handler.GetRecordsHandler(manager, l))
	mux.HandleFunc("/api/records/detail", handler.RecordDetailHandler(manager, l))
	mux.HandleFunc("/api/records/status", handler.ToggleStatusHandler(manager, l))
	mux.HandleFunc("/api/records/delete", handler.DeleteRecordHandler(manager, l))
	mux.HandleFunc("/api/confirm", handler.ConfirmHandler(manager, l))
	mux.HandleFunc("/api/stats", handler.GetStatsHandler(manager, l))
	mux.HandleFunc("/api/markers", handler.GetMarkersHandler(manager, l))

	// Capture
	mux.HandleFunc("/api/capture/frame", handler.CaptureFrameHandler(coordinator, l))
	mux.HandleFunc("/api/capture/upload", handler.UploadHandler(coordinator, l))
	mux.HandleFunc("/api/capture/cancel", handler.CancelCaptureHandler(coordinator, l))
	mux.HandleFunc("/api/capture/switch", handler.SwitchCameraHandler(coordinator, l))
	mux.HandleFunc("/api/capture/state", handler.CaptureStateHandler(coordinator, l))
	mux.HandleFunc("/api/capture/save", handler.SaveCaptureHandler(coordinator, l))

	// Export, sync and preferences
	mux.HandleFunc("/api/export/json", handler.ExportJSONHandler(manager, l))
	mux.HandleFunc("/api/export/csv", handler.ExportCSVHandler(manager, l))
	mux.HandleFunc("/api/sync", handler.SyncHandler(manager, l))
	mux.HandleFunc("/api/connectivity", handler.ConnectivityHandler(manager, l))
	mux.HandleFunc("/api/preferences", handler.PreferencesHandler(manager, l))

	// Live updates
	mux.HandleFunc("/api/events", handler.EventsWebsocketHandler(hub, l))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(l, logger.InfoFile))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(l, logger.WarningFile))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(l, logger.ErrorFile))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(l, logger.InfoFile))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(l, logger.WarningFile))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(l, logger.ErrorFile))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, l))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /login -> /static/login.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	return middleware.AuthMiddleware(mux)
}
