package importrun

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

type Lister interface {
	List(ctx context.Context, limit int) ([]models.ImportRun, error)
}

type ListRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=200"`
}

// Handler exposes the import audit trail.
type Handler struct {
	runs Lister
}

func NewHandler(runs Lister) *Handler {
	return &Handler{runs: runs}
}

func (h *Handler) Register(g *echo.Group, admin ...echo.MiddlewareFunc) {
	g.GET("", h.List, admin...)
}

// List returns the most recent import runs, newest first.
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "importrun_handler.List")
	defer span.End()

	req, err := utils.BindRequest[ListRequest](c)
	if err != nil {
		return err
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	runs, err := h.runs.List(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, runs)
}
