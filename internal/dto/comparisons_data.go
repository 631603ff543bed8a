package dto

import "changewatch/internal/model"

// ComparisonsData is the paginated payload of the history endpoint.
type ComparisonsData struct {
	Comparisons []model.Comparison `json:"comparisons"`
	Length      int                `json:"length"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
	Limit       int                `json:"limit"`
}
