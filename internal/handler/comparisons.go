package handler

import (
	"net/http"
	"strconv"

	"changewatch/internal/dto"
	"changewatch/internal/logger"
	"changewatch/internal/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// GetComparisonsHandler returns a page of the comparison history, newest first.
// Query: page, limit, outcome, strategy, change=1.
func GetComparisonsHandler(comparisonRepo repository.ComparisonRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultHistoryLimit)
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		filter := &dto.ComparisonFilter{
			Outcome:    q.Get("outcome"),
			Strategy:   q.Get("strategy"),
			ChangeOnly: q.Get("change") == "1" || q.Get("change") == "true",
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		comparisons, err := comparisonRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying comparisons from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := comparisonRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting comparisons: %v", err)
			totalCount = len(comparisons)
		}

		writeJSON(w, logger, http.StatusOK, dto.ComparisonsData{
			Comparisons: comparisons,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// ClearComparisonsHandler deletes the whole comparison history.
func ClearComparisonsHandler(comparisonRepo repository.ComparisonRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := comparisonRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing comparisons: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Comparison history cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// atoiDefault parses a positive integer, returning def for anything else.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
