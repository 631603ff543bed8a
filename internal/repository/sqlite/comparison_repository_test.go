package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"changewatch/internal/dto"
	"changewatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *ComparisonRepository {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewComparisonRepository(db)
}

func comparison(i int, outcome string, change bool) *model.Comparison {
	return &model.Comparison{
		RunID:          fmt.Sprintf("run-%d", i),
		Directory:      "./uploads",
		Newest:         fmt.Sprintf("image_%d.jpg", i+1),
		Previous:       fmt.Sprintf("image_%d.jpg", i),
		Strategy:       "orb",
		Outcome:        outcome,
		Score:          0.1 * float64(i),
		Threshold:      0.3,
		ChangeDetected: change,
		Notified:       true,
		DurationMs:     12,
		CreatedAt:      time.Date(2024, 3, 1, 12, 0, i, 0, time.UTC),
	}
}

func TestComparisonRepository_InsertAndGet(t *testing.T) {
	repo := newTestRepository(t)

	in := comparison(1, "compared", true)
	id, err := repo.Insert(in)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := repo.GetByRunID("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, in.Newest, got.Newest)
	assert.Equal(t, in.Previous, got.Previous)
	assert.InDelta(t, in.Score, got.Score, 1e-9)
	assert.True(t, got.ChangeDetected)
	assert.True(t, got.Notified)
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt))
}

func TestComparisonRepository_GetByRunIDMissing(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetByRunID("absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestComparisonRepository_DuplicateRunID(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Insert(comparison(1, "compared", false))
	require.NoError(t, err)
	_, err = repo.Insert(comparison(1, "compared", false))
	assert.Error(t, err)
}

func TestComparisonRepository_GetAllFilters(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 6; i++ {
		outcome := "compared"
		if i == 2 {
			outcome = "extraction_failed"
		}
		_, err := repo.Insert(comparison(i, outcome, i%2 == 1))
		require.NoError(t, err)
	}

	all, err := repo.GetAll(&dto.ComparisonFilter{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "run-5", all[0].RunID, "newest first")

	page, err := repo.GetAll(&dto.ComparisonFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "run-3", page[0].RunID)

	changed, err := repo.GetAll(&dto.ComparisonFilter{ChangeOnly: true})
	require.NoError(t, err)
	assert.Len(t, changed, 3)

	failed := &dto.ComparisonFilter{Outcome: "extraction_failed"}
	count, err := repo.GetTotalCount(failed)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestComparisonRepository_DeleteAll(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Insert(comparison(1, "compared", false))
	require.NoError(t, err)
	require.NoError(t, repo.DeleteAll())

	all, err := repo.GetAll(nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}
