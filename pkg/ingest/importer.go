// Package ingest reads CSV exports of unit records and stages each row.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	apperrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// StagedUnitStore is the storage the importer writes to.
type StagedUnitStore interface {
	FindByExternalID(ctx context.Context, externalID int64) (*models.StagedUnit, error)
	Create(ctx context.Context, unit *models.StagedUnit) error
	UpdateAttributes(ctx context.Context, id uuid.UUID, attrs models.UnitAttributes) (*models.StagedUnit, error)
}

// EventEmitter receives staged unit and import lifecycle events.
type EventEmitter interface {
	EmitUnitStaged(ctx context.Context, unit *models.StagedUnit) error
	EmitUnitUpdated(ctx context.Context, unit *models.StagedUnit) error
	EmitImportCompleted(ctx context.Context, source string, summary *models.ImportSummary) error
}

// RunRecorder keeps the history of imports.
type RunRecorder interface {
	Create(ctx context.Context, run *models.ImportRun) error
}

type Option func(*Importer)

func WithEmitter(emitter EventEmitter) Option {
	return func(i *Importer) {
		i.emitter = emitter
	}
}

func WithRunRecorder(runs RunRecorder) Option {
	return func(i *Importer) {
		i.runs = runs
	}
}

// Importer stages CSV rows one at a time. A bad row never aborts the batch;
// only an unreadable stream or a missing required column does.
type Importer struct {
	store   StagedUnitStore
	logger  ectologger.Logger
	emitter EventEmitter
	runs    RunRecorder
}

func NewImporter(store StagedUnitStore, logger ectologger.Logger, opts ...Option) *Importer {
	i := &Importer{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func newSummary() *models.ImportSummary {
	return &models.ImportSummary{Success: true, Errors: []string{}}
}

// ImportFile opens path and imports it. The file is closed on every path.
func (i *Importer) ImportFile(ctx context.Context, path string, opts models.ImportOptions) (*models.ImportSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Importer.ImportFile")
	defer span.End()

	source := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		start := time.Now()
		summary := newSummary()
		streamErr := apperrors.NewStreamReadError(source, err)
		summary.AddError(streamErr.Error())
		i.finish(ctx, source, opts, summary, start)
		return summary, streamErr
	}
	defer f.Close()

	return i.Import(ctx, source, f, opts)
}

// Import reads a CSV stream with a header row and stages every record.
// The summary is always returned. The error is non-nil only for a schema
// failure, an unreadable stream or a cancelled context.
func (i *Importer) Import(ctx context.Context, source string, r io.Reader, opts models.ImportOptions) (*models.ImportSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Importer.Import",
		tracing.AttrImportSource.String(source),
		tracing.AttrSkipDuplicates.Bool(opts.SkipDuplicates),
		tracing.AttrUpdateExisting.Bool(opts.UpdateExisting),
	)
	defer span.End()

	start := time.Now()
	summary := newSummary()
	defer i.finish(ctx, source, opts, summary, start)

	log := i.logger.WithContext(ctx).WithFields(map[string]any{
		"source":          source,
		"skip_duplicates": opts.SkipDuplicates,
		"update_existing": opts.UpdateExisting,
	})

	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRow, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			schemaErr := apperrors.NewSchemaValidationError(RequiredColumns)
			summary.AddError(schemaErr.Error())
			return summary, schemaErr
		}
		streamErr := apperrors.NewStreamReadError(source, err)
		summary.AddError(streamErr.Error())
		log.WithError(err).Error("Failed to read CSV header")
		return summary, streamErr
	}

	h := newHeader(headerRow)
	if missing := h.missing(RequiredColumns); len(missing) > 0 {
		schemaErr := apperrors.NewSchemaValidationError(missing)
		summary.AddError(schemaErr.Error())
		log.WithField("missing_columns", missing).Warn("CSV header is missing required columns")
		return summary, schemaErr
	}

	row := 0
	for {
		if err := ctx.Err(); err != nil {
			summary.AddError(fmt.Sprintf("import cancelled after %d rows: %v", row, err))
			return summary, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				summary.TotalRecords++
				i.rowFailed(ctx, summary, row, err)
				continue
			}
			streamErr := apperrors.NewStreamReadError(source, err)
			summary.AddError(streamErr.Error())
			log.WithError(err).WithField("row", row).Error("Failed to read CSV stream")
			return summary, streamErr
		}

		summary.TotalRecords++
		i.importRow(ctx, summary, &rowReader{
			ctx:    ctx,
			logger: i.logger,
			header: h,
			record: record,
			row:    row,
		}, opts)
	}

	return summary, nil
}

func (i *Importer) importRow(ctx context.Context, summary *models.ImportSummary, rr *rowReader, opts models.ImportOptions) {
	externalID := rr.externalID()
	attrs := rr.attributes()

	existing, err := i.store.FindByExternalID(ctx, externalID)
	if err != nil {
		i.rowFailed(ctx, summary, rr.row, err)
		return
	}

	if existing != nil {
		i.importDuplicate(ctx, summary, rr.row, existing, attrs, opts)
		return
	}

	unit := &models.StagedUnit{
		ExternalID:     externalID,
		UnitAttributes: attrs,
		Validated:      false,
	}
	if err := i.store.Create(ctx, unit); err != nil {
		// Lost a race with a concurrent import of the same id.
		if apperrors.IsConflict(err) {
			i.duplicateRow(ctx, summary, rr.row, externalID)
			return
		}
		i.rowFailed(ctx, summary, rr.row, err)
		return
	}

	summary.ImportedRecords++
	metrics.RecordRow("imported")
	if i.emitter != nil {
		if err := i.emitter.EmitUnitStaged(ctx, unit); err != nil {
			i.logger.WithContext(ctx).WithError(err).WithField("external_id", externalID).Warn("Staged unit event not delivered")
		}
	}
}

// importDuplicate applies the duplicate policy. UpdateExisting is checked first.
func (i *Importer) importDuplicate(ctx context.Context, summary *models.ImportSummary, row int, existing *models.StagedUnit, attrs models.UnitAttributes, opts models.ImportOptions) {
	switch {
	case opts.UpdateExisting:
		updated, err := i.store.UpdateAttributes(ctx, existing.ID, attrs)
		if err != nil {
			i.rowFailed(ctx, summary, row, err)
			return
		}
		summary.ImportedRecords++
		summary.UpdatedRecords++
		metrics.RecordRow("updated")
		if i.emitter != nil {
			if err := i.emitter.EmitUnitUpdated(ctx, updated); err != nil {
				i.logger.WithContext(ctx).WithError(err).WithField("external_id", existing.ExternalID).Warn("Updated unit event not delivered")
			}
		}
	case opts.SkipDuplicates:
		summary.SkippedRecords++
		metrics.RecordRow("skipped")
		i.logger.WithContext(ctx).WithFields(map[string]any{
			"row":         row,
			"external_id": existing.ExternalID,
		}).Debug("Skipped duplicate row")
	default:
		i.duplicateRow(ctx, summary, row, existing.ExternalID)
	}
}

func (i *Importer) duplicateRow(ctx context.Context, summary *models.ImportSummary, row int, externalID int64) {
	dupErr := apperrors.NewDuplicateRowError(row, externalID)
	summary.SkippedRecords++
	summary.AddError(dupErr.Error())
	metrics.RecordRow("error")
	i.logger.WithContext(ctx).WithFields(map[string]any{
		"row":         row,
		"external_id": externalID,
	}).Info("Duplicate row rejected")
}

func (i *Importer) rowFailed(ctx context.Context, summary *models.ImportSummary, row int, err error) {
	summary.SkippedRecords++
	summary.AddError(fmt.Sprintf("row %d: %v", row, err))
	metrics.RecordRow("error")
	i.logger.WithContext(ctx).WithError(err).WithField("row", row).Warn("Row not imported")
}

func (i *Importer) finish(ctx context.Context, source string, opts models.ImportOptions, summary *models.ImportSummary, start time.Time) {
	elapsed := time.Since(start)
	summary.DurationMs = elapsed.Milliseconds()
	metrics.RecordImport(summary.Success, elapsed.Seconds())

	i.logger.WithContext(ctx).WithFields(map[string]any{
		"source":           source,
		"success":          summary.Success,
		"total_records":    summary.TotalRecords,
		"imported_records": summary.ImportedRecords,
		"updated_records":  summary.UpdatedRecords,
		"skipped_records":  summary.SkippedRecords,
		"errors":           len(summary.Errors),
		"duration_ms":      summary.DurationMs,
	}).Info("Import finished")

	// Bookkeeping must outlive a cancelled request.
	ctx = context.WithoutCancel(ctx)

	if i.emitter != nil {
		if err := i.emitter.EmitImportCompleted(ctx, source, summary); err != nil {
			i.logger.WithContext(ctx).WithError(err).Warn("Import completed event not delivered")
		}
	}

	if i.runs != nil {
		run := &models.ImportRun{
			Source:    source,
			Options:   opts,
			Summary:   *summary,
			CreatedBy: appctx.GetUserID(ctx),
		}
		if err := i.runs.Create(ctx, run); err != nil {
			i.logger.WithContext(ctx).WithError(err).Warn("Failed to record import run")
		}
	}
}
