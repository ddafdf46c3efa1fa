package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/tasklist/internal/config"
	"github.com/adanyl0v/tasklist/internal/storage"
	"github.com/adanyl0v/tasklist/internal/storage/postgres"
	"github.com/adanyl0v/tasklist/internal/storage/sqlite"
)

var globalStore storage.Store

func MustOpenStorage() {
	cfg := config.Global()
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		globalStore = postgres.New(mustConnectPostgres(cfg.Postgres))
	case config.StorageDriverSQLite:
		store, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("path", cfg.SQLite.Path).
				Msg("failed to open sqlite")
			panic(err)
		}
		globalLogger.Info().
			Str("path", cfg.SQLite.Path).
			Msg("opened sqlite")
		globalStore = store
	default:
		panic(fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver))
	}
}

func mustConnectPostgres(cfg config.PostgresConfig) *pgxpool.Pool {
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = pool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")
	return pool
}

func MustMigrateStorage() {
	err := globalStore.Migrate(context.Background())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to migrate storage")
		panic(err)
	}
	globalLogger.Info().Msg("migrated storage")
}

func CloseStorage() {
	err := globalStore.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close storage")
		return
	}
	globalLogger.Info().Msg("closed storage")
}
