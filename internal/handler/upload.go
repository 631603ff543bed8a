package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"changewatch/internal/config"
	"changewatch/internal/logger"
	"changewatch/internal/service"
	"changewatch/internal/service/storage"
)

// UploadHandler accepts a raw image/jpeg body, stores it and queues a comparison.
// Bodies of any other content type are treated as empty.
func UploadHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		logger.Info("🛬 Upload received")

		var data []byte
		if isJPEG(r.Header.Get("Content-Type")) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "Image too large", http.StatusRequestEntityTooLarge)
					return
				}
				logger.Error("Error reading upload: %v", err)
				http.Error(w, "No image received", http.StatusBadRequest)
				return
			}
			data = body
		}

		if _, err := manager.HandleUpload(data); err != nil {
			if errors.Is(err, storage.ErrEmptyImage) {
				http.Error(w, "No image received", http.StatusBadRequest)
				return
			}
			if errors.Is(err, service.ErrStopped) {
				http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
				return
			}
			logger.Error("Error saving upload: %v", err)
			http.Error(w, "Failed to save image", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("✅ Image received successfully!"))
	}
}

func isJPEG(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "image/jpeg"
}
