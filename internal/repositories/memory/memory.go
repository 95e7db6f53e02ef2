// Package memory holds map-backed repositories for tests and the in-memory
// server mode. They enforce the same uniqueness rules as the Postgres schema.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

// clock returns strictly increasing timestamps so newest-first ordering is stable.
type clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

type StagedUnitRepository struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]models.StagedUnit
	byExternal map[int64]uuid.UUID
	clock      clock
}

func NewStagedUnitRepository() *StagedUnitRepository {
	return &StagedUnitRepository{
		byID:       make(map[uuid.UUID]models.StagedUnit),
		byExternal: make(map[int64]uuid.UUID),
	}
}

func copyStaged(u models.StagedUnit) *models.StagedUnit {
	u.UnitAttributes = u.UnitAttributes.Clone()
	return &u
}

func (r *StagedUnitRepository) GetByID(_ context.Context, id uuid.UUID) (*models.StagedUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unit, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("staged unit", id)
	}
	return copyStaged(unit), nil
}

func (r *StagedUnitRepository) FindByExternalID(_ context.Context, externalID int64) (*models.StagedUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return nil, nil
	}
	return copyStaged(r.byID[id]), nil
}

func (r *StagedUnitRepository) Create(_ context.Context, unit *models.StagedUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExternal[unit.ExternalID]; exists {
		return apperrors.NewConflictError("staged unit", unit.ExternalID)
	}
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	now := r.clock.now()
	unit.CreatedAt = now
	unit.UpdatedAt = now

	r.byID[unit.ID] = *copyStaged(*unit)
	r.byExternal[unit.ExternalID] = unit.ID
	return nil
}

func (r *StagedUnitRepository) UpdateAttributes(_ context.Context, id uuid.UUID, attrs models.UnitAttributes) (*models.StagedUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("staged unit", id)
	}
	unit.UnitAttributes = attrs.Clone()
	unit.UpdatedAt = r.clock.now()
	r.byID[id] = unit
	return copyStaged(unit), nil
}

func (r *StagedUnitRepository) SetValidated(_ context.Context, id uuid.UUID, validated bool) (*models.StagedUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("staged unit", id)
	}
	unit.Validated = validated
	unit.UpdatedAt = r.clock.now()
	r.byID[id] = unit
	return copyStaged(unit), nil
}

func (r *StagedUnitRepository) List(_ context.Context, validated *bool) ([]models.StagedUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := []models.StagedUnit{}
	for _, unit := range r.byID {
		if validated != nil && unit.Validated != *validated {
			continue
		}
		units = append(units, *copyStaged(unit))
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].CreatedAt.Equal(units[j].CreatedAt) {
			return units[i].ExternalID < units[j].ExternalID
		}
		return units[i].CreatedAt.After(units[j].CreatedAt)
	})
	return units, nil
}

func (r *StagedUnitRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.byID[id]
	if !ok {
		return apperrors.NewNotFoundError("staged unit", id)
	}
	delete(r.byID, id)
	delete(r.byExternal, unit.ExternalID)
	return nil
}

type CanonicalUnitRepository struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]models.CanonicalUnit
	byExternal map[int64]uuid.UUID
	byStaged   map[uuid.UUID]uuid.UUID
	clock      clock
}

func NewCanonicalUnitRepository() *CanonicalUnitRepository {
	return &CanonicalUnitRepository{
		byID:       make(map[uuid.UUID]models.CanonicalUnit),
		byExternal: make(map[int64]uuid.UUID),
		byStaged:   make(map[uuid.UUID]uuid.UUID),
	}
}

func copyCanonical(u models.CanonicalUnit) *models.CanonicalUnit {
	u.UnitAttributes = u.UnitAttributes.Clone()
	return &u
}

func (r *CanonicalUnitRepository) GetByID(_ context.Context, id uuid.UUID) (*models.CanonicalUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unit, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("canonical unit", id)
	}
	return copyCanonical(unit), nil
}

func (r *CanonicalUnitRepository) FindByExternalID(_ context.Context, externalID int64) (*models.CanonicalUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return nil, nil
	}
	return copyCanonical(r.byID[id]), nil
}

func (r *CanonicalUnitRepository) Create(_ context.Context, unit *models.CanonicalUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExternal[unit.ExternalID]; exists {
		return apperrors.NewConflictError("canonical unit", unit.ExternalID)
	}
	if _, exists := r.byStaged[unit.StagedUnitID]; exists {
		return apperrors.NewConflictError("canonical unit", unit.ExternalID)
	}
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	now := r.clock.now()
	unit.CreatedAt = now
	unit.UpdatedAt = now

	r.byID[unit.ID] = *copyCanonical(*unit)
	r.byExternal[unit.ExternalID] = unit.ID
	r.byStaged[unit.StagedUnitID] = unit.ID
	return nil
}

func (r *CanonicalUnitRepository) List(_ context.Context) ([]models.CanonicalUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]models.CanonicalUnit, 0, len(r.byID))
	for _, unit := range r.byID {
		units = append(units, *copyCanonical(unit))
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].CreatedAt.After(units[j].CreatedAt)
	})
	return units, nil
}

// Count returns the number of canonical units held.
func (r *CanonicalUnitRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

type ImportRunRepository struct {
	mu   sync.Mutex
	runs []models.ImportRun
}

func NewImportRunRepository() *ImportRunRepository {
	return &ImportRunRepository{}
}

func (r *ImportRunRepository) Create(_ context.Context, run *models.ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now().UTC()
	r.runs = append(r.runs, *run)
	return nil
}

func (r *ImportRunRepository) List(_ context.Context, limit int) ([]models.ImportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runs := make([]models.ImportRun, 0, len(r.runs))
	for i := len(r.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(runs) == limit {
			break
		}
		runs = append(runs, r.runs[i])
	}
	return runs, nil
}
