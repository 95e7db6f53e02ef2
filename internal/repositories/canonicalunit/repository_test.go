package canonicalunit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/database"
	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewRepository(database.NewDatabaseInstance(sqlx.NewDb(mockDB, "postgres"), logger), logger), mock
}

func canonicalRow(u models.CanonicalUnit) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(u.ID.String(), u.ExternalID, u.StagedUnitID.String(), u.Name, u.UnitType,
		u.Technology, u.Chassis, u.Era, u.Year, u.RulesLevel, u.Tonnage, u.BattleValue, u.PointValue,
		nil, "A", nil, u.CreatedAt, u.UpdatedAt)
}

func sampleCanonical() models.CanonicalUnit {
	now := time.Now().UTC()
	return models.CanonicalUnit{
		ID:           uuid.New(),
		ExternalID:   11,
		StagedUnitID: uuid.New(),
		UnitAttributes: models.UnitAttributes{
			Name:        "Timber Wolf Prime",
			UnitType:    "BattleMech",
			Technology:  "Clan",
			Chassis:     "Timber Wolf",
			Era:         "Clan Invasion",
			Year:        2945,
			RulesLevel:  "Standard",
			Tonnage:     75,
			BattleValue: 2737,
			PointValue:  49,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepository_FindByExternalID(t *testing.T) {
	repo, mock := newTestRepository(t)
	unit := sampleCanonical()

	mock.ExpectQuery(`SELECT .+ FROM canonical_units WHERE external_id = \$1`).
		WithArgs(int64(11)).
		WillReturnRows(canonicalRow(unit))

	got, err := repo.FindByExternalID(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, unit.StagedUnitID, got.StagedUnitID)
	require.NotNil(t, got.Rating)
	assert.Equal(t, "A", *got.Rating)
}

func TestRepository_FindByExternalIDMissing(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`FROM canonical_units`).WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByExternalID(context.Background(), 11)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`FROM canonical_units WHERE id = \$1`).WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newTestRepository(t)
	unit := sampleCanonical()

	mock.ExpectQuery(`INSERT INTO canonical_units \(id, external_id, staged_unit_id, .+\) VALUES .+ RETURNING created_at, updated_at`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(unit.CreatedAt, unit.UpdatedAt))

	require.NoError(t, repo.Create(context.Background(), &unit))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUniqueViolationIsConflict(t *testing.T) {
	for _, constraint := range []string{"canonical_units_external_id_key", "canonical_units_staged_unit_id_key"} {
		t.Run(constraint, func(t *testing.T) {
			repo, mock := newTestRepository(t)
			unit := sampleCanonical()

			mock.ExpectQuery(`INSERT INTO canonical_units`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: constraint})

			err := repo.Create(context.Background(), &unit)
			require.Error(t, err)
			assert.True(t, apperrors.IsConflict(err))
		})
	}
}

func TestRepository_List(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`FROM canonical_units ORDER BY created_at DESC`).WillReturnRows(sqlmock.NewRows(columns))

	units, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, units)
}
