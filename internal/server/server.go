// Package server assembles the echo application: middleware chain, API
// routes, health probes and the Prometheus endpoint.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/canonicalunit"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/importrun"
	"github.com/Ramsey-B/fern/pkg/routes/stagedunit"
)

const apiPrefix = "/api/v1"

// Promotion is everything the unit routes need from the promotion service.
type Promotion interface {
	stagedunit.Service
	canonicalunit.Service
}

type Dependencies struct {
	Promotion  Promotion
	Importer   stagedunit.Importer
	ImportRuns importrun.Lister
	Health     *health.Checker
	// Verifier checks bearer tokens. Nil falls back to header identities.
	Verifier middleware.ClaimsVerifier
}

// New builds the echo instance with every route registered.
func New(cfg *config.Config, logger ectologger.Logger, deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(
		echomiddleware.Recover(),
		otelecho.Middleware(cfg.AppName),
		middleware.Context(),
		middleware.Logger(logger),
	)

	deps.Health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group(apiPrefix)
	if deps.Verifier != nil {
		api.Use(middleware.Authentication(logger, deps.Verifier))
	} else {
		logger.Warn("Authentication disabled; identities are taken from request headers")
		api.Use(middleware.TestAuth())
	}
	admin := middleware.RequireRole(cfg.AdminRole)

	stagedunit.NewHandler(deps.Promotion, deps.Importer, logger, cfg.ImportMaxUploadBytes, cfg.ImportDefaults()).
		Register(api.Group("/staged-units"), admin)
	canonicalunit.NewHandler(deps.Promotion).Register(api.Group("/units"))
	importrun.NewHandler(deps.ImportRuns).Register(api.Group("/imports"), admin)

	return e
}

// HTTPServer applies the configured timeouts to an http.Server for e.
func HTTPServer(cfg *config.Config, e *echo.Echo) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
