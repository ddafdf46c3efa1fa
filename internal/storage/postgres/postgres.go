package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/tasklist/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockID keys the advisory lock that serializes concurrent
// migrators.
const migrationLockID = 7_346_501

var dialect = storage.Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Time: func(t time.Time) any {
		return t.Truncate(time.Microsecond)
	},
	Date: func(t time.Time) any {
		return t
	},
}

// Store implements storage.Store on top of a PostgreSQL connection pool.
type Store struct {
	pgPool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func New(pgPool *pgxpool.Pool) *Store {
	return &Store{pgPool: pgPool}
}

func (s *Store) Close() error {
	s.pgPool.Close()
	return nil
}

func (s *Store) Migrate(ctx context.Context) error {
	const createMigrationsTableQuery = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)
`
	_, err := s.pgPool.Exec(ctx, createMigrationsTableQuery)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	migrations, err := storage.LoadMigrations(sub)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		err = s.applyMigration(ctx, m)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, m storage.Migration) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction for %d_%s: %w", m.Version, m.Name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	var applied bool
	err = tx.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`,
		m.Version,
	).Scan(&applied)
	if err != nil {
		return fmt.Errorf("failed to check migration %d_%s: %w", m.Version, m.Name, err)
	}
	if applied {
		return nil
	}

	_, err = tx.Exec(ctx, m.SQL)
	if err != nil {
		return fmt.Errorf("failed to apply migration %d_%s: %w", m.Version, m.Name, err)
	}

	_, err = tx.Exec(
		ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
		m.Version,
		m.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to record migration %d_%s: %w", m.Version, m.Name, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("failed to commit migration %d_%s: %w", m.Version, m.Name, err)
	}
	return nil
}

// classify maps driver errors onto the storage sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", storage.ErrTransient, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", storage.ErrTransient, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %w", storage.ErrAlreadyExists, err)
		case pgerrcode.IsTransactionRollback(pgErr.Code),
			pgerrcode.IsConnectionException(pgErr.Code),
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow:
			return fmt.Errorf("%w: %w", storage.ErrTransient, err)
		}
	}
	return err
}
