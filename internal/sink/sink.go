// Package sink opens the database selected by configuration and hands out
// writers bound to it.
package sink

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/productimport/internal/config"
	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/writer"
)

// Drivers. DriverPQ reaches Postgres through database/sql and lib/pq
// instead of a pgx pool.
const (
	DriverPostgres = "postgres"
	DriverPQ       = "pq"
	DriverSQLite   = "sqlite3"
)

// Sink is an open database.
type Sink struct {
	Driver    string
	NewWriter core.WriterFactory

	ping  func(ctx context.Context) error
	close func()
}

// Open connects according to cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Sink, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(ctx, cfg)
	case DriverSQLite:
		return openSQLite(ctx, cfg)
	case DriverPQ:
		return openPQ(ctx, cfg)
	default:
		return nil, errors.Newf("unknown database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Sink, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database URL")
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "driver", cfg.Driver, "name", strings.TrimPrefix(u.Path, "/"))
	}

	return &Sink{
		Driver:    DriverPostgres,
		NewWriter: writer.NewPostgres(pool),
		ping:      pool.Ping,
		close:     pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*Sink, error) {
	db, err := sql.Open(DriverSQLite, cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// sqlite allows one writer; a second connection would block on the
	// run's transaction.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	slog.Info("connected to database", "driver", cfg.Driver, "path", cfg.URL)

	return &Sink{
		Driver:    DriverSQLite,
		NewWriter: writer.NewSQL(db),
		ping:      db.PingContext,
		close:     func() { db.Close() },
	}, nil
}

func openPQ(ctx context.Context, cfg config.DatabaseConfig) (*Sink, error) {
	// lib/pq registers itself under the "postgres" name.
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "driver", cfg.Driver, "name", strings.TrimPrefix(u.Path, "/"))
	}

	return &Sink{
		Driver:    DriverPQ,
		NewWriter: writer.NewSQL(db, writer.WithDollarPlaceholders()),
		ping:      db.PingContext,
		close:     func() { db.Close() },
	}, nil
}

// Ping checks the connection.
func (s *Sink) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the connection pool.
func (s *Sink) Close() {
	s.close()
}
