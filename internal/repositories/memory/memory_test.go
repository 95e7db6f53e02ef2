package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories"
	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

var (
	_ repositories.StagedUnitRepo    = (*StagedUnitRepository)(nil)
	_ repositories.CanonicalUnitRepo = (*CanonicalUnitRepository)(nil)
	_ repositories.ImportRunRepo     = (*ImportRunRepository)(nil)
)

func TestStagedUnitRepository_UniqueExternalID(t *testing.T) {
	ctx := context.Background()
	repo := NewStagedUnitRepository()

	require.NoError(t, repo.Create(ctx, &models.StagedUnit{ExternalID: 5}))
	err := repo.Create(ctx, &models.StagedUnit{ExternalID: 5})
	assert.True(t, apperrors.IsConflict(err))
}

func TestStagedUnitRepository_ListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewStagedUnitRepository()

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, repo.Create(ctx, &models.StagedUnit{ExternalID: id}))
	}
	second, err := repo.FindByExternalID(ctx, 2)
	require.NoError(t, err)
	_, err = repo.SetValidated(ctx, second.ID, true)
	require.NoError(t, err)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{all[0].ExternalID, all[1].ExternalID, all[2].ExternalID})

	validated := true
	onlyValidated, err := repo.List(ctx, &validated)
	require.NoError(t, err)
	require.Len(t, onlyValidated, 1)
	assert.Equal(t, int64(2), onlyValidated[0].ExternalID)
}

func TestStagedUnitRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewStagedUnitRepository()
	rating := "A"
	unit := &models.StagedUnit{ExternalID: 9, UnitAttributes: models.UnitAttributes{Rating: &rating}}
	require.NoError(t, repo.Create(ctx, unit))

	got, err := repo.GetByID(ctx, unit.ID)
	require.NoError(t, err)
	*got.Rating = "F"
	got.Name = "changed"

	again, err := repo.GetByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", *again.Rating)
	assert.Empty(t, again.Name)
}

func TestStagedUnitRepository_MissingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewStagedUnitRepository()
	id := uuid.New()

	_, err := repo.GetByID(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = repo.SetValidated(ctx, id, true)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = repo.UpdateAttributes(ctx, id, models.UnitAttributes{})
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, id)))
}

func TestCanonicalUnitRepository_ConcurrentCreateHasOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewCanonicalUnitRepository()
	stagedID := uuid.New()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Create(ctx, &models.CanonicalUnit{ExternalID: 77, StagedUnitID: stagedID})
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.IsConflict(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, repo.Count())
}

func TestImportRunRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewImportRunRepository()
	require.NoError(t, repo.Create(ctx, &models.ImportRun{Source: "a.csv"}))
	require.NoError(t, repo.Create(ctx, &models.ImportRun{Source: "b.csv"}))

	runs, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b.csv", runs[0].Source)
}
