package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// resolve turns err into a status, a client-safe message and metadata.
func resolve(err error) (int, string, map[string]any) {
	err = apperrors.ToHTTPError(err)

	var httperr *httperror.HTTPError
	if errors.As(err, &httperr) {
		meta := httperr.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		return httperr.Code, httperr.Message, meta
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg, map[string]any{}
		}
		return he.Code, http.StatusText(he.Code), map[string]any{}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, http.StatusText(http.StatusGatewayTimeout), map[string]any{}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), map[string]any{}
}

// Error renders handler errors as ErrorResponse. Server faults log at error
// level and never expose the underlying message.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ctx := c.Request().Context()
		code, message, meta := resolve(err)

		log := logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"status": code,
			"route":  appctx.GetRoute(ctx),
		})
		if code >= http.StatusInternalServerError {
			tracing.RecordError(ctx, err)
			log.Error("Request failed")
		} else {
			log.Warn("Request rejected")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: appctx.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
