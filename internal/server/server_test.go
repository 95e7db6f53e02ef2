package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/memory"
	"github.com/Ramsey-B/fern/pkg/ingest"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/promotion"
	"github.com/Ramsey-B/fern/pkg/routes/health"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyClaims(_ context.Context, raw string) (*middleware.UserClaims, error) {
	claims := &middleware.UserClaims{Sub: raw}
	claims.RealmAccess.Roles = []string{"admin"}
	return claims, nil
}

func newApp(t *testing.T, verifier middleware.ClaimsVerifier) *echo.Echo {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	staged := memory.NewStagedUnitRepository()
	runs := memory.NewImportRunRepository()
	checker := health.NewChecker("test")
	checker.SetReady(true)

	return New(cfg, logger, Dependencies{
		Promotion:  promotion.NewService(staged, memory.NewCanonicalUnitRepository(), logger),
		Importer:   ingest.NewImporter(staged, logger, ingest.WithRunRecorder(runs)),
		ImportRuns: runs,
		Health:     checker,
		Verifier:   verifier,
	})
}

func upload(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "mechs.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestNew_ImportThenPromote(t *testing.T) {
	e := newApp(t, fakeVerifier{})

	body, contentType := upload(t, "DBID,Name/Model,Unit Type,Technology,Chassis,Era\n7,Locust LCT-1V,BattleMech,Inner Sphere,Locust,Succession Wars\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/staged-units/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer reviewer-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary models.ImportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.ImportedRecords)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/staged-units", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer reviewer-1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var units []models.StagedUnit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &units))
	require.Len(t, units, 1)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/staged-units/"+units[0].ID.String()+"/validate", strings.NewReader(`{"validated":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer reviewer-1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/imports", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer reviewer-1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var imports []models.ImportRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imports))
	require.Len(t, imports, 1)
	assert.Equal(t, "mechs.csv", imports[0].Source)
	assert.Equal(t, "reviewer-1", imports[0].CreatedBy)
}

func TestNew_APIRequiresBearer(t *testing.T) {
	e := newApp(t, fakeVerifier{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/units", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNew_HeaderAuthWhenVerifierMissing(t *testing.T) {
	e := newApp(t, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/units", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNew_OperationalEndpoints(t *testing.T) {
	e := newApp(t, nil)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fern_http_requests_total")
}

func TestHTTPServer(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	srv := HTTPServer(cfg, echo.New())
	assert.Equal(t, ":3010", srv.Addr)
	assert.Equal(t, 30*time.Second, srv.ReadTimeout)
}
