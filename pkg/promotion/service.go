// Package promotion moves staged units through review and promotes validated
// units into canonical records exactly once.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const canonicalEntity = "canonical unit"

const lockTTL = 30 * time.Second

type StagedUnitStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.StagedUnit, error)
	SetValidated(ctx context.Context, id uuid.UUID, validated bool) (*models.StagedUnit, error)
	List(ctx context.Context, validated *bool) ([]models.StagedUnit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CanonicalUnitStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CanonicalUnit, error)
	FindByExternalID(ctx context.Context, externalID int64) (*models.CanonicalUnit, error)
	Create(ctx context.Context, unit *models.CanonicalUnit) error
	List(ctx context.Context) ([]models.CanonicalUnit, error)
}

// Locker serialises promotions of one external id across instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

type EventEmitter interface {
	EmitValidationChanged(ctx context.Context, unit *models.StagedUnit) error
	EmitUnitPromoted(ctx context.Context, unit *models.CanonicalUnit) error
	EmitUnitRemoved(ctx context.Context, unit *models.StagedUnit) error
}

// Projector mirrors canonical units into a secondary read model.
type Projector interface {
	ProjectUnit(ctx context.Context, unit *models.CanonicalUnit) error
}

type Option func(*Service)

func WithLocker(locker Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

func WithEmitter(emitter EventEmitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

func WithProjector(projector Projector) Option {
	return func(s *Service) {
		s.projector = projector
	}
}

type Service struct {
	staged    StagedUnitStore
	canonical CanonicalUnitStore
	logger    ectologger.Logger
	locker    Locker
	emitter   EventEmitter
	projector Projector
}

func NewService(staged StagedUnitStore, canonical CanonicalUnitStore, logger ectologger.Logger, opts ...Option) *Service {
	s := &Service{
		staged:    staged,
		canonical: canonical,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetValidationStatus persists the flag only. It never creates a canonical unit.
func (s *Service) SetValidationStatus(ctx context.Context, id uuid.UUID, validated bool) (*models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "promotion.Service.SetValidationStatus", tracing.AttrStagedUnitID.String(id.String()))
	defer span.End()

	unit, err := s.staged.SetValidated(ctx, id, validated)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"staged_unit_id": id,
		"external_id":    unit.ExternalID,
		"validated":      validated,
	}).Info("Updated validation status")

	metrics.RecordPromotion(outcome(validated))
	s.emitValidationChanged(ctx, unit)
	return unit, nil
}

// ValidateAndPromote persists the flag and, when validated, creates the
// canonical unit. A canonical unit that already exists for the external id
// yields a ConflictError; the flag change is kept.
func (s *Service) ValidateAndPromote(ctx context.Context, id uuid.UUID, validated bool) (*models.PromotionResult, error) {
	ctx, span := tracing.StartSpan(ctx, "promotion.Service.ValidateAndPromote", tracing.AttrStagedUnitID.String(id.String()))
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"staged_unit_id": id,
		"validated":      validated,
	})

	if _, err := s.staged.GetByID(ctx, id); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	unit, err := s.staged.SetValidated(ctx, id, validated)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	tracing.Annotate(ctx, tracing.AttrExternalID.Int64(unit.ExternalID))
	s.emitValidationChanged(ctx, unit)

	if !validated {
		metrics.RecordPromotion(outcome(false))
		log.Info("Unit returned to pending")
		return &models.PromotionResult{StagedUnit: unit}, nil
	}

	canonical, err := s.promote(ctx, unit)
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.RecordPromotion("conflict")
			log.WithField("external_id", unit.ExternalID).Warn("Unit already promoted")
		}
		tracing.RecordError(ctx, err)
		return nil, err
	}

	metrics.RecordPromotion("promoted")
	log.WithFields(map[string]any{
		"external_id":       unit.ExternalID,
		"canonical_unit_id": canonical.ID,
	}).Info("Promoted unit")

	s.afterPromotion(ctx, canonical)
	return &models.PromotionResult{StagedUnit: unit, CanonicalUnit: canonical}, nil
}

func (s *Service) promote(ctx context.Context, unit *models.StagedUnit) (*models.CanonicalUnit, error) {
	var canonical *models.CanonicalUnit
	create := func() error {
		existing, err := s.canonical.FindByExternalID(ctx, unit.ExternalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.NewConflictError(canonicalEntity, unit.ExternalID)
		}

		candidate := models.NewCanonicalUnit(unit)
		// The unique constraint catches a concurrent promotion that passed the check above.
		if err := s.canonical.Create(ctx, candidate); err != nil {
			return err
		}
		canonical = candidate
		return nil
	}

	var err error
	if s.locker == nil {
		err = create()
	} else {
		err = s.locker.WithLock(ctx, fmt.Sprintf("promotion:%d", unit.ExternalID), lockTTL, create)
	}

	if errors.Is(err, redis.ErrLockNotAcquired) {
		conflict := apperrors.NewConflictError(canonicalEntity, unit.ExternalID)
		conflict.Reason = "is being promoted by another request"
		return nil, conflict
	}
	if err != nil {
		return nil, err
	}
	return canonical, nil
}

func (s *Service) afterPromotion(ctx context.Context, canonical *models.CanonicalUnit) {
	if s.emitter != nil {
		if err := s.emitter.EmitUnitPromoted(ctx, canonical); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Promotion event not delivered")
		}
	}
	if s.projector != nil {
		if err := s.projector.ProjectUnit(ctx, canonical); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Graph projection failed")
		}
	}
}

func (s *Service) emitValidationChanged(ctx context.Context, unit *models.StagedUnit) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.EmitValidationChanged(ctx, unit); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Validation event not delivered")
	}
}

func outcome(validated bool) string {
	if validated {
		return "validated"
	}
	return "pending"
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "promotion.Service.Get")
	defer span.End()

	return s.staged.GetByID(ctx, id)
}

// List returns staged units newest first, filtered by review state.
func (s *Service) List(ctx context.Context, filter models.ValidationFilter) ([]models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "promotion.Service.List")
	defer span.End()

	units, err := s.staged.List(ctx, filter.Validated())
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []models.StagedUnit{}
	}
	return units, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.StagedUnit, error) {
	return s.List(ctx, models.ValidationFilterAll)
}

func (s *Service) ListValidated(ctx context.Context) ([]models.StagedUnit, error) {
	return s.List(ctx, models.ValidationFilterValidated)
}

func (s *Service) ListPending(ctx context.Context) ([]models.StagedUnit, error) {
	return s.List(ctx, models.ValidationFilterPending)
}

// Remove deletes a staged unit in any state. Canonical units are left alone.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "promotion.Service.Remove")
	defer span.End()

	unit, err := s.staged.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.staged.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"staged_unit_id": id,
		"external_id":    unit.ExternalID,
	}).Info("Removed staged unit")

	if s.emitter != nil {
		if err := s.emitter.EmitUnitRemoved(ctx, unit); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Removal event not delivered")
		}
	}
	return nil
}

func (s *Service) GetCanonical(ctx context.Context, id uuid.UUID) (*models.CanonicalUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "promotion.Service.GetCanonical")
	defer span.End()

	return s.canonical.GetByID(ctx, id)
}

func (s *Service) ListCanonical(ctx context.Context) ([]models.CanonicalUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "promotion.Service.ListCanonical")
	defer span.End()

	units, err := s.canonical.List(ctx)
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []models.CanonicalUnit{}
	}
	return units, nil
}
