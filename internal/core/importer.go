package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/JonMunkholm/productimport/internal/logging"
)

// Importer runs the pipeline: read, convert, validate, write, aggregate.
// Rows are handled strictly one after another; a failing row never stops
// the run. Only a source read failure or a Finish error is returned.
type Importer struct {
	readers   *ReaderLocator
	newWriter WriterFactory

	unique    UniqueChecker
	validator Validator
	location  *time.Location
	groups    []string
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithUniqueChecker sets the lookup used by uniqueness rules. Without it a
// writer that implements UniqueChecker is consulted.
func WithUniqueChecker(u UniqueChecker) ImporterOption {
	return func(im *Importer) { im.unique = u }
}

// WithValidator replaces the target's rule validator.
func WithValidator(v Validator) ImporterOption {
	return func(im *Importer) { im.validator = v }
}

// WithLocation sets the zone of timestamps that carry none.
func WithLocation(loc *time.Location) ImporterOption {
	return func(im *Importer) { im.location = loc }
}

// WithDefaultGroups sets the validation groups used when options name none.
func WithDefaultGroups(groups ...string) ImporterOption {
	return func(im *Importer) { im.groups = groups }
}

// NewImporter returns an Importer resolving formats through readers and
// creating one writer per run through newWriter.
func NewImporter(readers *ReaderLocator, newWriter WriterFactory, opts ...ImporterOption) *Importer {
	im := &Importer{
		readers:   readers,
		newWriter: newWriter,
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Formats lists the formats the importer can read.
func (im *Importer) Formats() []string {
	return im.readers.Formats()
}

// Import reads source in format and imports every row into target.
// A nil converter selects the FieldConverter.
//
// Setup failures return a nil Result. Once rows have been read, the Result
// is always returned, together with any fatal error.
func (im *Importer) Import(ctx context.Context, source any, format, target string, conv Converter, opts Options) (*Result, error) {
	if opts == nil {
		opts = Options{}
	}

	reader, err := im.readers.Reader(format)
	if err != nil {
		return nil, err
	}
	def, err := Lookup(target)
	if err != nil {
		return nil, err
	}

	if err := reader.Configure(opts); err != nil {
		return nil, errors.Wrap(err, "configure reader")
	}
	writer := im.newWriter(def)
	if err := writer.Configure(opts); err != nil {
		return nil, errors.Wrap(err, "configure writer")
	}
	dryRun, err := DryRunMode(opts)
	if err != nil {
		return nil, err
	}
	groups, err := opts.List(OptionGroups)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		groups = im.groups
	}

	if err := reader.Load(source); err != nil {
		return nil, err
	}
	rows, err := reader.Read()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if conv == nil {
		conv = NewFieldConverter(im.location)
	}
	validator := im.validator
	if validator == nil {
		unique := im.unique
		if uc, ok := writer.(UniqueChecker); ok && unique == nil {
			unique = uc
		}
		validator = NewRuleValidator(def, unique)
	}

	result := NewResult(uuid.NewString())
	ctx = logging.ContextWithRunID(ctx, result.RunID)
	logger := logging.WithFields(ctx,
		"format", reader.Format(),
		"target", def.Info.Key,
		"dry_run", dryRun,
	)
	logger.Info("import started", "groups", groups)

	run := &run{
		def:       def,
		conv:      conv,
		validator: validator,
		writer:    writer,
		groups:    groups,
		result:    result,
		logger:    logger,
	}
	for rows.Next() {
		run.process(ctx, rows.Item())
	}

	// Finish runs once even after a read failure so the sink is never left
	// holding an open transaction.
	finishErr := writer.Finish(ctx)
	result.FinishedAt = time.Now()

	var bytesRead int64
	if bc, ok := reader.(ByteCounter); ok {
		bytesRead = bc.BytesRead()
	}
	attrs := []any{
		"processed", result.Processed(),
		"succeeded", result.Succeeded(),
		"failed", result.Failed(),
		"bytes", bytesRead,
		"duration", result.Duration(),
	}

	if readErr := rows.Err(); readErr != nil {
		if finishErr != nil {
			logger.Error("finish after read failure", "error", finishErr)
		}
		logger.Error("import aborted", append(attrs, "error", readErr)...)
		return result, readErr
	}
	if finishErr != nil {
		finishErr = errors.Mark(errors.Wrap(finishErr, "finish import"), ErrFinalize)
		logger.Error("import failed", append(attrs, "error", finishErr)...)
		return result, finishErr
	}

	logger.Info("import finished", attrs...)
	return result, nil
}

// run carries the per-run collaborators through row processing.
type run struct {
	def       TargetDefinition
	conv      Converter
	validator Validator
	writer    Writer
	groups    []string
	result    *Result
	logger    *slog.Logger
}

// process drives one item through the pipeline. Every outcome, including a
// panic, ends with the row counted.
func (r *run) process(ctx context.Context, item Item) {
	failedBefore := r.result.Failed()

	defer func() {
		if r.result.Failed() > failedBefore {
			r.logger.Debug("row failed", "line", item.Line())
		}
	}()
	defer r.result.MarkProcessed()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic while processing row", "line", item.Line(), "panic", p)
			r.result.AddProcessError(errors.Newf("unexpected fault: %v", p), item)
		}
	}()

	if !item.OK() {
		r.result.AddProcessError(errors.New(item.Err), item)
		return
	}

	obj, err := r.conv.Convert(item, r.def)
	if err != nil {
		r.result.AddProcessError(err, item)
		return
	}

	violations, err := r.validator.Validate(ctx, obj, r.groups)
	if err != nil {
		r.result.AddProcessError(err, item)
		return
	}
	if len(violations) > 0 {
		r.result.AddValidationErrors(violations, item)
		return
	}

	if err := r.writer.Write(ctx, obj); err != nil {
		r.result.AddProcessError(err, item)
	}
}
