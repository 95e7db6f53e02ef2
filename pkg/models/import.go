package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportOptions controls how rows whose external id already exists are handled.
// UpdateExisting is checked before SkipDuplicates.
type ImportOptions struct {
	SkipDuplicates bool `json:"skip_duplicates" query:"skip_duplicates" form:"skip_duplicates"`
	UpdateExisting bool `json:"update_existing" query:"update_existing" form:"update_existing"`
}

// ImportSummary is the result of one import run. Partial success shows up in
// the counts; Success is true only when Errors is empty.
type ImportSummary struct {
	Success         bool     `json:"success"`
	TotalRecords    int      `json:"total_records"`
	ImportedRecords int      `json:"imported_records"`
	UpdatedRecords  int      `json:"updated_records"`
	SkippedRecords  int      `json:"skipped_records"`
	Errors          []string `json:"errors"`
	DurationMs      int64    `json:"duration_ms"`
}

// AddError records a row or stream error and clears Success.
func (s *ImportSummary) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
	s.Success = false
}

// ImportRun is the persisted record of one import.
type ImportRun struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Source    string        `json:"source" db:"source"`
	Options   ImportOptions `json:"options" db:"-"`
	Summary   ImportSummary `json:"summary" db:"-"`
	CreatedBy string        `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
