package writer

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/productimport/internal/core"
)

// SQLWriter writes through database/sql. It uses "?" placeholders, as the
// sqlite3 driver expects, unless WithDollarPlaceholders is given.
type SQLWriter struct {
	db          *sql.DB
	def         core.TargetDefinition
	now         func() time.Time
	placeholder func(i int) string

	insert string
	dryRun bool
	tx     *sql.Tx
	n      int
	broken error
}

// SQLOption configures an SQLWriter.
type SQLOption func(*SQLWriter)

// WithDollarPlaceholders switches to $1, $2, ... as lib/pq expects.
func WithDollarPlaceholders() SQLOption {
	return func(w *SQLWriter) { w.placeholder = dollar }
}

// NewSQL returns a factory creating one SQLWriter per run.
func NewSQL(db *sql.DB, opts ...SQLOption) core.WriterFactory {
	return func(def core.TargetDefinition) core.Writer {
		return NewSQLWriter(db, def, opts...)
	}
}

// NewSQLWriter returns a writer for def.
func NewSQLWriter(db *sql.DB, def core.TargetDefinition, opts ...SQLOption) *SQLWriter {
	w := &SQLWriter{
		db:          db,
		def:         def,
		now:         time.Now,
		placeholder: question,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.insert = insertSQL(def.Info.Table, def.Columns, w.placeholder)
	return w
}

// Configure implements core.Writer.
func (w *SQLWriter) Configure(opts core.Options) error {
	dry, err := core.DryRunMode(opts)
	if err != nil {
		return err
	}
	w.dryRun = dry
	return nil
}

// Write implements core.Writer.
func (w *SQLWriter) Write(ctx context.Context, obj any) error {
	if w.dryRun {
		return nil
	}
	if w.broken != nil {
		return w.writeError(errors.Wrap(w.broken, "transaction unusable"))
	}

	args, err := rowArgs(w.def, obj, w.now())
	if err != nil {
		return w.writeError(err)
	}

	if w.tx == nil {
		tx, err := w.db.BeginTx(ctx, nil)
		if err != nil {
			return w.writeError(errors.Wrap(err, "begin transaction"))
		}
		w.tx = tx
	}

	w.n++
	sp := savepointName(w.n)
	if _, err := w.tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return w.writeError(errors.Wrapf(err, "create savepoint %s", sp))
	}

	if _, err := w.tx.ExecContext(ctx, w.insert, args...); err != nil {
		if _, rbErr := w.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			w.broken = rbErr
			err = errors.CombineErrors(err, rbErr)
		}
		return w.writeError(err)
	}

	if _, err := w.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return w.writeError(errors.Wrapf(err, "release savepoint %s", sp))
	}
	return nil
}

// Finish commits the staged rows.
func (w *SQLWriter) Finish(ctx context.Context) error {
	if w.dryRun || w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil

	if w.broken != nil {
		_ = tx.Rollback()
		return errors.Wrap(w.broken, "savepoint rollback failed")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Exists implements core.UniqueChecker.
func (w *SQLWriter) Exists(ctx context.Context, table, column string, value any) (bool, error) {
	query := existsSQL(table, column, w.placeholder(1))
	var row *sql.Row
	if w.tx != nil && w.broken == nil {
		row = w.tx.QueryRowContext(ctx, query, value)
	} else {
		row = w.db.QueryRowContext(ctx, query, value)
	}

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "lookup %s.%s", table, column)
	}
	return exists, nil
}

func (w *SQLWriter) writeError(err error) error {
	return &core.WriteError{Table: w.def.Info.Table, Err: err}
}
