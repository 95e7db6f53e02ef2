package utils

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

var binder = &echo.DefaultBinder{}

// BindRequest binds path params, query (GET/DELETE) and body into T and
// validates the result. Binding and validation failures are both 400s.
func BindRequest[T any](c echo.Context) (T, error) {
	var req T
	if err := c.Bind(&req); err != nil {
		return req, httperror.WrapError(http.StatusBadRequest, err)
	}
	return validated(req)
}

// BindOnto starts from base and overlays query params, then the body, so a
// form field wins over the same query param and unset fields keep base values.
func BindOnto[T any](c echo.Context, base T) (T, error) {
	req := base
	if err := binder.BindQueryParams(c, &req); err != nil {
		return base, httperror.WrapError(http.StatusBadRequest, err)
	}
	if err := binder.BindBody(c, &req); err != nil {
		return base, httperror.WrapError(http.StatusBadRequest, err)
	}
	return validated(req)
}

func validated[T any](req T) (T, error) {
	_, err := Validate(req)
	if err == nil {
		return req, nil
	}

	var fields FieldErrors
	if errors.As(err, &fields) {
		return req, httperror.NewHTTPError(http.StatusBadRequest, fields.Error()).AddMetaValue("fields", map[string]string(fields))
	}
	return req, httperror.WrapError(http.StatusBadRequest, err)
}
