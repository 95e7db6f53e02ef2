// Package repositories declares the storage contracts for staged and canonical
// units. Postgres and in-memory implementations live in the subpackages.
package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
)

// StagedUnitRepo persists staged units. GetByID and the mutating methods return
// errors.NotFoundError for a missing id; FindByExternalID returns nil, nil.
// A second unit with the same external id is rejected with errors.ConflictError.
type StagedUnitRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.StagedUnit, error)
	FindByExternalID(ctx context.Context, externalID int64) (*models.StagedUnit, error)
	Create(ctx context.Context, unit *models.StagedUnit) error
	UpdateAttributes(ctx context.Context, id uuid.UUID, attrs models.UnitAttributes) (*models.StagedUnit, error)
	SetValidated(ctx context.Context, id uuid.UUID, validated bool) (*models.StagedUnit, error)
	// List returns units newest first. A nil validated matches every unit.
	List(ctx context.Context, validated *bool) ([]models.StagedUnit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CanonicalUnitRepo persists canonical units. Create returns
// errors.ConflictError when the external id or staged unit is already promoted.
type CanonicalUnitRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CanonicalUnit, error)
	FindByExternalID(ctx context.Context, externalID int64) (*models.CanonicalUnit, error)
	Create(ctx context.Context, unit *models.CanonicalUnit) error
	List(ctx context.Context) ([]models.CanonicalUnit, error)
}

// ImportRunRepo records the outcome of each import.
type ImportRunRepo interface {
	Create(ctx context.Context, run *models.ImportRun) error
	List(ctx context.Context, limit int) ([]models.ImportRun, error)
}
