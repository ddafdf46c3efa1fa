package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

// EnvReader reads the configuration from environment variables.
type EnvReader struct{}

var _ Reader = EnvReader{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings cleanenv cannot express with tags.
func (cfg *Config) Validate() error {
	switch cfg.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env: %s", cfg.Env)
	}

	switch cfg.Storage.Driver {
	case StorageDriverPostgres:
		if cfg.Postgres.Host == "" || cfg.Postgres.Username == "" || cfg.Postgres.Database == "" {
			return fmt.Errorf("postgres storage requires POSTGRES_HOST, POSTGRES_USERNAME and POSTGRES_DATABASE")
		}
	case StorageDriverSQLite:
		if cfg.SQLite.Path == "" {
			return fmt.Errorf("sqlite storage requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}

	if len(cfg.JWT.SigningKey) < 32 {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least 32 bytes")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}
