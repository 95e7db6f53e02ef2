package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const maxRequestIDLength = 128

// acceptRequestID reports whether a caller-supplied id is safe to echo into
// logs and response headers.
func acceptRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

// Context stamps every request with an id and its request metadata. A
// malformed X-Request-ID is replaced rather than trusted.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if !acceptRequestID(requestID) {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}

			ctx := appctx.SetRequestID(req.Context(), requestID)
			ctx = appctx.SetMethod(ctx, req.Method)
			ctx = appctx.SetRoute(ctx, route)
			ctx = appctx.SetRemoteIP(ctx, c.RealIP())
			tracing.Annotate(ctx, attribute.String("http.request_id", requestID))

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
