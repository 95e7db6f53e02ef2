//go:build integration

package integration

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Ramsey-B/fern/internal/repositories/canonicalunit"
	"github.com/Ramsey-B/fern/internal/repositories/importrun"
	"github.com/Ramsey-B/fern/internal/repositories/stagedunit"
	"github.com/Ramsey-B/fern/pkg/database"
	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/ingest"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/promotion"
)

func startPostgres(t *testing.T) *database.DatabaseInstance {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "user",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "fern",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db, err := database.Connect(ctx, database.Config{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     "fern",
		SSLMode:  "disable",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{MigrationFolderPath: "../../db/pg"})
	require.NoError(t, migrations.MigratePostgres(db.DB, "fern"))
	return db
}

func TestPostgres_ImportAndPromote(t *testing.T) {
	ctx := context.Background()
	db := startPostgres(t)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	staged := stagedunit.NewRepository(db, logger)
	canonical := canonicalunit.NewRepository(db, logger)
	runs := importrun.NewRepository(db, logger)
	importer := ingest.NewImporter(staged, logger, ingest.WithRunRecorder(runs))
	service := promotion.NewService(staged, canonical, logger)

	csv := "DBID,Name/Model,Unit Type,Technology,Chassis,Era,Cost\n" +
		"1,Atlas AS7-D,BattleMech,Inner Sphere,Atlas,Star League,\"9,626,000\"\n" +
		"2,Locust LCT-1V,BattleMech,Inner Sphere,Locust,Succession Wars,\n" +
		"2,Locust LCT-1V,BattleMech,Inner Sphere,Locust,Succession Wars,\n"

	summary, err := importer.Import(ctx, "mechs.csv", strings.NewReader(csv), models.ImportOptions{SkipDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, 2, summary.ImportedRecords)
	assert.Equal(t, 1, summary.SkippedRecords)

	atlas, err := staged.FindByExternalID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, atlas)
	require.NotNil(t, atlas.Cost)
	assert.Equal(t, int64(9626000), *atlas.Cost)

	// Concurrent promotions of one unit create exactly one canonical row.
	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.ValidateAndPromote(ctx, atlas.ID, true)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.IsConflict(err), err.Error())
	}
	assert.Equal(t, 1, succeeded)

	units, err := service.ListCanonical(ctx)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, int64(1), units[0].ExternalID)

	history, err := runs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Summary.SkippedRecords)
}
