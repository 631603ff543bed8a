package repository

import (
	"changewatch/internal/dto"
	"changewatch/internal/model"
)

// ComparisonRepository defines the interface for comparison history operations.
type ComparisonRepository interface {
	// Create operations
	Insert(c *model.Comparison) (int64, error)

	// Read operations
	GetByRunID(runID string) (*model.Comparison, error)
	GetAll(filter *dto.ComparisonFilter) ([]model.Comparison, error)
	GetTotalCount(filter *dto.ComparisonFilter) (int, error)

	// Delete operations
	DeleteAll() error
}
