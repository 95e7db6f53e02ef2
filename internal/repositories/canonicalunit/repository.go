package canonicalunit

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	tableName  = "canonical_units"
	entityName = "canonical unit"
)

var columns = []string{
	"id", "external_id", "staged_unit_id", "name", "unit_type", "technology", "chassis", "era", "year", "rules_level",
	"tonnage", "battle_value", "point_value", "cost", "rating", "designer", "created_at", "updated_at",
}

// Repository stores canonical units in Postgres. Rows are only ever inserted;
// the unique constraints on external_id and staged_unit_id settle promotion races.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CanonicalUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalunit.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(sb.Equal("id", id))

	query, args := sb.Build()
	var unit models.CanonicalUnit
	if err := r.db.GetContext(ctx, &unit, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(entityName, id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("Failed to get canonical unit")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get canonical unit")
	}
	return &unit, nil
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID int64) (*models.CanonicalUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalunit.Repository.FindByExternalID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(sb.Equal("external_id", externalID))

	query, args := sb.Build()
	var unit models.CanonicalUnit
	if err := r.db.GetContext(ctx, &unit, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("external_id", externalID).Error("Failed to find canonical unit by external id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find canonical unit")
	}
	return &unit, nil
}

func (r *Repository) Create(ctx context.Context, unit *models.CanonicalUnit) error {
	ctx, span := tracing.StartSpan(ctx, "canonicalunit.Repository.Create")
	defer span.End()

	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}

	a := unit.UnitAttributes
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols(columns...).
		Values(unit.ID, unit.ExternalID, unit.StagedUnitID, a.Name, a.UnitType, a.Technology, a.Chassis, a.Era, a.Year,
			a.RulesLevel, a.Tonnage, a.BattleValue, a.PointValue, a.Cost, a.Rating, a.Designer,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&unit.CreatedAt, &unit.UpdatedAt); err != nil {
		if constraint, ok := database.IsUniqueViolation(err); ok {
			r.logger.WithContext(ctx).WithFields(map[string]any{
				"external_id":    unit.ExternalID,
				"staged_unit_id": unit.StagedUnitID,
				"constraint":     constraint,
			}).Warn("Canonical unit already exists")
			return apperrors.NewConflictError(entityName, unit.ExternalID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"external_id":    unit.ExternalID,
			"staged_unit_id": unit.StagedUnitID,
		}).Error("Failed to create canonical unit")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create canonical unit")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          unit.ID,
		"external_id": unit.ExternalID,
	}).Debugf("Created %s", tableName)
	return nil
}

func (r *Repository) List(ctx context.Context) ([]models.CanonicalUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalunit.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).From(tableName).OrderBy("created_at DESC", "external_id ASC")

	query, args := sb.Build()
	units := []models.CanonicalUnit{}
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list canonical units")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list canonical units")
	}
	return units, nil
}
