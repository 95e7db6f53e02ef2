// Package errors defines the failures the staging pipeline reports to callers.
// Each type converts to an HTTP error through ToHTTPError.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// HTTPConvertible is implemented by every error in this package.
type HTTPConvertible interface {
	error
	ToHTTPError() *httperror.HTTPError
}

// SchemaValidationError means the CSV header lacks required columns.
type SchemaValidationError struct {
	Missing []string
}

func NewSchemaValidationError(missing []string) *SchemaValidationError {
	return &SchemaValidationError{Missing: missing}
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaValidationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).AddMetaValue("missing_columns", e.Missing)
}

// DuplicateRowError is a row whose external id is already staged while neither
// skip nor update mode is on. It is captured in the import summary.
type DuplicateRowError struct {
	Row        int
	ExternalID int64
}

func NewDuplicateRowError(row int, externalID int64) *DuplicateRowError {
	return &DuplicateRowError{Row: row, ExternalID: externalID}
}

func (e *DuplicateRowError) Error() string {
	return fmt.Sprintf("%d already exists", e.ExternalID)
}

func (e *DuplicateRowError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, e.Error()).AddMetaValue("row", e.Row).AddMetaValue("external_id", e.ExternalID)
}

// NotFoundError means the referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Entity, e.ID)
}

func (e *NotFoundError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusNotFound, e.Error()).AddMetaValue("entity", e.Entity).AddMetaValue("id", e.ID)
}

// ConflictError means a uniqueness rule on the external id would be broken.
type ConflictError struct {
	Entity     string
	ExternalID int64
	Reason     string
}

func NewConflictError(entity string, externalID int64) *ConflictError {
	return &ConflictError{Entity: entity, ExternalID: externalID, Reason: "already exists"}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with external id %d %s", e.Entity, e.ExternalID, e.Reason)
}

func (e *ConflictError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, e.Error()).AddMetaValue("entity", e.Entity).AddMetaValue("external_id", e.ExternalID)
}

// StreamReadError wraps a failure reading the import stream itself.
type StreamReadError struct {
	Source string
	Err    error
}

func NewStreamReadError(source string, err error) *StreamReadError {
	return &StreamReadError{Source: source, Err: err}
}

func (e *StreamReadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to read import stream: %v", e.Err)
	}
	return fmt.Sprintf("failed to read %s: %v", e.Source, e.Err)
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}

func (e *StreamReadError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusUnprocessableEntity, e.Error())
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return stderrors.As(err, &target)
}

func IsSchemaValidation(err error) bool {
	var target *SchemaValidationError
	return stderrors.As(err, &target)
}

func IsStreamRead(err error) bool {
	var target *StreamReadError
	return stderrors.As(err, &target)
}

// ToHTTPError converts any error in this package, wrapped or not, to its HTTP
// form. Other errors are returned unchanged.
func ToHTTPError(err error) error {
	var convertible HTTPConvertible
	if stderrors.As(err, &convertible) {
		return convertible.ToHTTPError()
	}
	return err
}
