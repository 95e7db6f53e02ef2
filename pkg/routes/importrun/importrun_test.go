package importrun

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories/memory"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
)

func setup(t *testing.T, runs int) *echo.Echo {
	t.Helper()
	repo := memory.NewImportRunRepository()
	for i := 0; i < runs; i++ {
		require.NoError(t, repo.Create(context.Background(), &models.ImportRun{Source: fmt.Sprintf("batch-%d.csv", i)}))
	}

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.TestAuth())
	NewHandler(repo).Register(e.Group("/api/v1/imports"), middleware.RequireRole("admin"))
	return e
}

func list(e *echo.Echo, query string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports"+query, nil)
	if admin {
		req.Header.Set(middleware.HeaderUserID, "ops")
		req.Header.Set(middleware.HeaderUserRoles, "admin")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	e := setup(t, 25)

	rec := list(e, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []models.ImportRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, defaultLimit)
	assert.Equal(t, "batch-24.csv", runs[0].Source)

	rec = list(e, "?limit=3", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 3)
}

func TestList_RejectsBadLimit(t *testing.T) {
	e := setup(t, 1)
	assert.Equal(t, http.StatusBadRequest, list(e, "?limit=-1", true).Code)
	assert.Equal(t, http.StatusBadRequest, list(e, "?limit=1000", true).Code)
}

func TestList_RequiresAdmin(t *testing.T) {
	e := setup(t, 1)
	assert.Equal(t, http.StatusUnauthorized, list(e, "", false).Code)
}
