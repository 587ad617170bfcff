package writer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/productimport/internal/core"
)

// PgxDB is the subset of *pgxpool.Pool the writer needs.
type PgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresWriter writes through pgx.
type PostgresWriter struct {
	db  PgxDB
	def core.TargetDefinition
	now func() time.Time

	insert string
	dryRun bool
	tx     pgx.Tx
	n      int
	broken error
}

// NewPostgres returns a factory creating one PostgresWriter per run.
func NewPostgres(db PgxDB) core.WriterFactory {
	return func(def core.TargetDefinition) core.Writer {
		return NewPostgresWriter(db, def)
	}
}

// NewPostgresWriter returns a writer for def.
func NewPostgresWriter(db PgxDB, def core.TargetDefinition) *PostgresWriter {
	return &PostgresWriter{
		db:     db,
		def:    def,
		now:    time.Now,
		insert: insertSQL(def.Info.Table, def.Columns, dollar),
	}
}

// Configure implements core.Writer.
func (w *PostgresWriter) Configure(opts core.Options) error {
	dry, err := core.DryRunMode(opts)
	if err != nil {
		return err
	}
	w.dryRun = dry
	return nil
}

// Write implements core.Writer.
func (w *PostgresWriter) Write(ctx context.Context, obj any) error {
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
		tx, err := w.db.Begin(ctx)
		if err != nil {
			return w.writeError(errors.Wrap(err, "begin transaction"))
		}
		w.tx = tx
	}

	w.n++
	sp := savepointName(w.n)
	if _, err := w.tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
		return w.writeError(errors.Wrapf(err, "create savepoint %s", sp))
	}

	if _, err := w.tx.Exec(ctx, w.insert, args...); err != nil {
		if _, rbErr := w.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			w.broken = rbErr
			err = errors.CombineErrors(err, rbErr)
		}
		return w.writeError(err)
	}

	if _, err := w.tx.Exec(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return w.writeError(errors.Wrapf(err, "release savepoint %s", sp))
	}
	return nil
}

// Finish commits the staged rows. Without any Write it does nothing.
func (w *PostgresWriter) Finish(ctx context.Context) error {
	if w.dryRun || w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil

	if w.broken != nil {
		_ = tx.Rollback(ctx)
		return errors.Wrap(w.broken, "savepoint rollback failed")
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Exists implements core.UniqueChecker. While a run is open the lookup goes
// through its transaction so rows staged earlier in the run are seen.
func (w *PostgresWriter) Exists(ctx context.Context, table, column string, value any) (bool, error) {
	query := existsSQL(table, column, "$1")
	var row pgx.Row
	if w.tx != nil && w.broken == nil {
		row = w.tx.QueryRow(ctx, query, value)
	} else {
		row = w.db.QueryRow(ctx, query, value)
	}

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "lookup %s.%s", table, column)
	}
	return exists, nil
}

func (w *PostgresWriter) writeError(err error) error {
	return &core.WriteError{Table: w.def.Info.Table, Err: err}
}
