package stagedunit

import (
	"context"
	"net/http"
	"strings"

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
	tableName  = "staged_units"
	entityName = "staged unit"
)

var columns = []string{
	"id", "external_id", "name", "unit_type", "technology", "chassis", "era", "year", "rules_level",
	"tonnage", "battle_value", "point_value", "cost", "rating", "designer", "validated", "created_at", "updated_at",
}

// Repository stores staged units in Postgres.
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

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "stagedunit.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(sb.Equal("id", id))

	query, args := sb.Build()
	var unit models.StagedUnit
	if err := r.db.GetContext(ctx, &unit, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(entityName, id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("Failed to get staged unit")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get staged unit")
	}
	return &unit, nil
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID int64) (*models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "stagedunit.Repository.FindByExternalID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(sb.Equal("external_id", externalID))

	query, args := sb.Build()
	var unit models.StagedUnit
	if err := r.db.GetContext(ctx, &unit, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("external_id", externalID).Error("Failed to find staged unit by external id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find staged unit")
	}
	return &unit, nil
}

func (r *Repository) Create(ctx context.Context, unit *models.StagedUnit) error {
	ctx, span := tracing.StartSpan(ctx, "stagedunit.Repository.Create")
	defer span.End()

	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}

	a := unit.UnitAttributes
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols("id", "external_id", "name", "unit_type", "technology", "chassis", "era", "year", "rules_level",
			"tonnage", "battle_value", "point_value", "cost", "rating", "designer", "validated", "created_at", "updated_at").
		Values(unit.ID, unit.ExternalID, a.Name, a.UnitType, a.Technology, a.Chassis, a.Era, a.Year, a.RulesLevel,
			a.Tonnage, a.BattleValue, a.PointValue, a.Cost, a.Rating, a.Designer, unit.Validated,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&unit.CreatedAt, &unit.UpdatedAt); err != nil {
		if _, ok := database.IsUniqueViolation(err); ok {
			return apperrors.NewConflictError(entityName, unit.ExternalID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":          unit.ID,
			"external_id": unit.ExternalID,
		}).Error("Failed to create staged unit")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create staged unit")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          unit.ID,
		"external_id": unit.ExternalID,
	}).Debugf("Created %s", tableName)
	return nil
}

// UpdateAttributes overwrites the domain fields and leaves validated alone.
func (r *Repository) UpdateAttributes(ctx context.Context, id uuid.UUID, attrs models.UnitAttributes) (*models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "stagedunit.Repository.UpdateAttributes")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(tableName).Set(
		ub.Assign("name", attrs.Name),
		ub.Assign("unit_type", attrs.UnitType),
		ub.Assign("technology", attrs.Technology),
		ub.Assign("chassis", attrs.Chassis),
		ub.Assign("era", attrs.Era),
		ub.Assign("year", attrs.Year),
		ub.Assign("rules_level", attrs.RulesLevel),
		ub.Assign("tonnage", attrs.Tonnage),
		ub.Assign("battle_value", attrs.BattleValue),
		ub.Assign("point_value", attrs.PointValue),
		ub.Assign("cost", attrs.Cost),
		ub.Assign("rating", attrs.Rating),
		ub.Assign("designer", attrs.Designer),
		"updated_at = NOW()",
	).Where(ub.Equal("id", id))
	ub.SQL("RETURNING " + strings.Join(columns, ", "))

	return r.updateReturning(ctx, ub, id, "Failed to update staged unit")
}

func (r *Repository) SetValidated(ctx context.Context, id uuid.UUID, validated bool) (*models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "stagedunit.Repository.SetValidated")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(tableName).Set(
		ub.Assign("validated", validated),
		"updated_at = NOW()",
	).Where(ub.Equal("id", id))
	ub.SQL("RETURNING " + strings.Join(columns, ", "))

	return r.updateReturning(ctx, ub, id, "Failed to set staged unit validation")
}

func (r *Repository) updateReturning(ctx context.Context, ub *sqlbuilder.UpdateBuilder, id uuid.UUID, failure string) (*models.StagedUnit, error) {
	query, args := ub.Build()
	var unit models.StagedUnit
	if err := r.db.GetContext(ctx, &unit, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(entityName, id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error(failure)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update staged unit")
	}
	return &unit, nil
}

func (r *Repository) List(ctx context.Context, validated *bool) ([]models.StagedUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "stagedunit.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...).From(tableName)
	if validated != nil {
		sb.Where(sb.Equal("validated", *validated))
	}
	sb.OrderBy("created_at DESC", "external_id ASC")

	query, args := sb.Build()
	units := []models.StagedUnit{}
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("validated", validated).Error("Failed to list staged units")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list staged units")
	}
	return units, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "stagedunit.Repository.Delete")
	defer span.End()

	delb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	delb.DeleteFrom(tableName).Where(delb.Equal("id", id))

	query, args := delb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("Failed to delete staged unit")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete staged unit")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("Failed to read deleted row count")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete staged unit")
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(entityName, id)
	}

	r.logger.WithContext(ctx).WithField("id", id).Debugf("Deleted %s", tableName)
	return nil
}
