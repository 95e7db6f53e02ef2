package stagedunit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const uploadField = "file"

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.StagedUnit, error)
	List(ctx context.Context, filter models.ValidationFilter) ([]models.StagedUnit, error)
	SetValidationStatus(ctx context.Context, id uuid.UUID, validated bool) (*models.StagedUnit, error)
	ValidateAndPromote(ctx context.Context, id uuid.UUID, validated bool) (*models.PromotionResult, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type Importer interface {
	Import(ctx context.Context, source string, r io.Reader, opts models.ImportOptions) (*models.ImportSummary, error)
}

type Handler struct {
	service        Service
	importer       Importer
	logger         ectologger.Logger
	maxUploadBytes int64
	defaults       models.ImportOptions
}

func NewHandler(service Service, importer Importer, logger ectologger.Logger, maxUploadBytes int64, defaults models.ImportOptions) *Handler {
	return &Handler{
		service:        service,
		importer:       importer,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		defaults:       defaults,
	}
}

// Register mounts the staged unit routes. admin guards every mutating route.
func (h *Handler) Register(g *echo.Group, admin ...echo.MiddlewareFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/import", h.Import, admin...)
	g.PATCH("/:id/validation", h.SetValidation, admin...)
	g.POST("/:id/validate", h.Validate, admin...)
	g.DELETE("/:id", h.Delete, admin...)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid id %q", c.Param("id"))
	}
	return id, nil
}

// List returns staged units filtered by ?status=all|validated|pending
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "stagedunit_handler.List")
	defer span.End()

	req, err := utils.BindRequest[models.ListStagedUnitsRequest](c)
	if err != nil {
		return err
	}

	units, err := h.service.List(ctx, models.ValidationFilter(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, units)
}

func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "stagedunit_handler.Get")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	unit, err := h.service.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, unit)
}

// SetValidation flips the validated flag without promoting.
func (h *Handler) SetValidation(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "stagedunit_handler.SetValidation")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.SetValidationRequest](c)
	if err != nil {
		return err
	}

	unit, err := h.service.SetValidationStatus(ctx, id, *req.Validated)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, unit)
}

// Validate sets the flag and promotes the unit when validated is true.
func (h *Handler) Validate(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "stagedunit_handler.Validate")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.SetValidationRequest](c)
	if err != nil {
		return err
	}

	result, err := h.service.ValidateAndPromote(ctx, id, *req.Validated)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.CanonicalUnit != nil {
		status = http.StatusCreated
	}
	return c.JSON(status, result)
}

func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "stagedunit_handler.Delete")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Remove(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Import stages the uploaded CSV. The upload is spooled to a temp file that is
// removed on every exit path.
func (h *Handler) Import(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "stagedunit_handler.Import")
	defer span.End()

	if h.maxUploadBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return httperror.NewHTTPErrorf(http.StatusRequestEntityTooLarge, "upload exceeds %d bytes", maxErr.Limit)
		}
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "multipart field %q is required", uploadField)
	}

	opts, err := utils.BindOnto(c, h.defaults)
	if err != nil {
		return err
	}

	path, cleanup, err := spool(fileHeader)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to spool upload")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to store upload")
	}
	defer func() {
		if err := cleanup(); err != nil {
			h.logger.WithContext(ctx).WithError(err).WithField("path", path).Warn("Failed to remove upload temp file")
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read upload")
	}
	defer f.Close()

	summary, err := h.importer.Import(ctx, fileHeader.Filename, f, opts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
