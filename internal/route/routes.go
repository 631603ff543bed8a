package route

import (
	"net/http"

	"changewatch/internal/config"
	"changewatch/internal/handler"
	"changewatch/internal/logger"
	"changewatch/internal/middleware"
	"changewatch/internal/service"
)

// SetupRoutes registers the upload endpoint, image and history APIs, the live
// verdict feed and log endpoints, and wraps the mux with request logging.
func SetupRoutes(manager *service.Manager, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Camera uploads and stored images
	mux.HandleFunc("/upload", handler.UploadHandler(manager, cfg, log))
	mux.Handle("/uploads/", handler.UploadsHandler(cfg))

	// API endpoints
	mux.HandleFunc("/api/images", handler.ListImagesHandler(cfg, log))
	mux.HandleFunc("/api/verdicts", handler.VerdictWebsocketHandler(manager, log))
	if repo := manager.GetComparisonRepository(); repo != nil {
		mux.HandleFunc("/api/comparisons", handler.GetComparisonsHandler(repo, log))
		mux.HandleFunc("/api/comparisons/clear", handler.ClearComparisonsHandler(repo, log))
	}

	// Log endpoints
	for _, level := range []struct{ path, file string }{
		{"/logs/info", logger.InfoFile},
		{"/logs/warning", logger.WarningFile},
		{"/logs/error", logger.ErrorFile},
	} {
		mux.HandleFunc(level.path, handler.ShowLogsHandler(log, level.file))
		mux.HandleFunc(level.path+"/clear", handler.ClearLogsHandler(log, level.file))
	}

	return middleware.LoggingMiddleware(log, mux)
}
