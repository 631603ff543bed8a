package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"changewatch/internal/config"
	"changewatch/internal/logger"
	"changewatch/internal/scanner"
)

// ListImagesHandler returns the absolute URLs of stored images, newest first.
func ListImagesHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		images, err := scanner.List(cfg.UploadDir)
		if err != nil {
			logger.Error("❌ Failed to list images: %v", err)
			writeJSON(w, logger, http.StatusInternalServerError, map[string]string{"error": "Failed to list images"})
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

		urls := make([]string, 0, len(images))
		for _, img := range images {
			urls = append(urls, baseURL+"/uploads/"+url.PathEscape(img.Name))
		}

		writeJSON(w, logger, http.StatusOK, urls)
	}
}

// UploadsHandler serves stored images from the upload directory. Directory
// listings are not exposed.
func UploadsHandler(cfg *config.Config) http.Handler {
	files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
