package importrun

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const tableName = "import_runs"

const defaultLimit = 50

type row struct {
	ID        uuid.UUID                            `db:"id"`
	Source    string                               `db:"source"`
	Options   database.JSONB[models.ImportOptions] `db:"options"`
	Summary   database.JSONB[models.ImportSummary] `db:"summary"`
	CreatedBy string                               `db:"created_by"`
	CreatedAt time.Time                            `db:"created_at"`
}

func (r row) toModel() models.ImportRun {
	return models.ImportRun{
		ID:        r.ID,
		Source:    r.Source,
		Options:   r.Options.Data,
		Summary:   r.Summary.Data,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

// Repository keeps an audit trail of imports.
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

func (r *Repository) Create(ctx context.Context, run *models.ImportRun) error {
	ctx, span := tracing.StartSpan(ctx, "importrun.Repository.Create")
	defer span.End()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols("id", "source", "options", "summary", "created_by", "created_at").
		Values(run.ID, run.Source, database.NewJSONB(run.Options), database.NewJSONB(run.Summary), run.CreatedBy, sqlbuilder.Raw("NOW()")).
		Returning("created_at")

	query, args := ib.Build()
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&run.CreatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("source", run.Source).Error("Failed to record import run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record import run")
	}
	return nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]models.ImportRun, error) {
	ctx, span := tracing.StartSpan(ctx, "importrun.Repository.List")
	defer span.End()

	if limit <= 0 || limit > 500 {
		limit = defaultLimit
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "source", "options", "summary", "created_by", "created_at").
		From(tableName).
		OrderBy("created_at DESC").
		Limit(limit)

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list import runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list import runs")
	}

	runs := make([]models.ImportRun, 0, len(rows))
	for _, rw := range rows {
		runs = append(runs, rw.toModel())
	}
	return runs, nil
}
