package canonicalunit

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Service interface {
	GetCanonical(ctx context.Context, id uuid.UUID) (*models.CanonicalUnit, error)
	ListCanonical(ctx context.Context) ([]models.CanonicalUnit, error)
}

// Handler serves the promoted units. They are read-only over HTTP.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "canonicalunit_handler.List")
	defer span.End()

	units, err := h.service.ListCanonical(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, units)
}

func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "canonicalunit_handler.Get")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid id %q", c.Param("id"))
	}

	unit, err := h.service.GetCanonical(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unit)
}
