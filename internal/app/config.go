package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/tasklist/internal/config"
)

// MustReadConfig reads the configuration from reader and makes it global.
func MustReadConfig(reader config.Reader) {
	cfg, err := reader.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read config")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage_driver", cfg.Storage.Driver).
		Msg("read config")

	config.SetGlobal(cfg)
}
