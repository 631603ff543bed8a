package sqlite

import (
	"database/sql"
	"fmt"

	"changewatch/internal/dto"
	"changewatch/internal/model"
)

const comparisonColumns = `id, run_id, directory, newest, previous, strategy, outcome,
	score, threshold, change_detected, notified, duration_ms, created_at`

// ComparisonRepository implements repository.ComparisonRepository for SQLite.
type ComparisonRepository struct {
	db *DB
}

// NewComparisonRepository creates a new SQLite comparison repository.
func NewComparisonRepository(db *DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

// Insert adds a comparison record and returns its row id.
func (r *ComparisonRepository) Insert(c *model.Comparison) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO comparisons (run_id, directory, newest, previous, strategy, outcome,
			score, threshold, change_detected, notified, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.RunID, c.Directory, c.Newest, c.Previous, c.Strategy, c.Outcome,
		c.Score, c.Threshold, c.ChangeDetected, c.Notified, c.DurationMs, c.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert comparison: %w", err)
	}

	return result.LastInsertId()
}

// GetByRunID returns the comparison for a run, or nil if there is none.
func (r *ComparisonRepository) GetByRunID(runID string) (*model.Comparison, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+comparisonColumns+` FROM comparisons WHERE run_id = ?`, runID)
	c, err := scanComparison(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}
	return c, nil
}

// GetAll returns comparisons matching the filter, newest first.
func (r *ComparisonRepository) GetAll(filter *dto.ComparisonFilter) ([]model.Comparison, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := comparisonWhere(filter)
	query := `SELECT ` + comparisonColumns + ` FROM comparisons` + where + ` ORDER BY created_at DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparisons: %w", err)
	}
	defer rows.Close()

	comparisons := []model.Comparison{}
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		comparisons = append(comparisons, *c)
	}

	return comparisons, rows.Err()
}

// GetTotalCount returns the number of comparisons matching the filter.
func (r *ComparisonRepository) GetTotalCount(filter *dto.ComparisonFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := comparisonWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM comparisons`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comparisons: %w", err)
	}
	return count, nil
}

// DeleteAll removes every comparison record.
func (r *ComparisonRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM comparisons`); err != nil {
		return fmt.Errorf("failed to delete comparisons: %w", err)
	}
	return nil
}

func comparisonWhere(filter *dto.ComparisonFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, filter.Outcome)
	}

	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}

	if filter.ChangeOnly {
		query += " AND change_detected = 1"
	}

	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComparison(row rowScanner) (*model.Comparison, error) {
	var c model.Comparison
	err := row.Scan(&c.ID, &c.RunID, &c.Directory, &c.Newest, &c.Previous, &c.Strategy, &c.Outcome,
		&c.Score, &c.Threshold, &c.ChangeDetected, &c.Notified, &c.DurationMs, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
