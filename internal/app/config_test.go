package app

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasklist/internal/config"
)

type stubReader struct {
	cfg *config.Config
	err error
}

func (r stubReader) Read() (*config.Config, error) {
	return r.cfg, r.err
}

func TestMustReadConfig(t *testing.T) {
	globalLogger = zerolog.Nop()
	previous := config.Global()
	t.Cleanup(func() { config.SetGlobal(previous) })

	cfg := &config.Config{
		Env:     config.EnvLocal,
		Storage: config.StorageConfig{Driver: config.StorageDriverSQLite},
	}
	MustReadConfig(stubReader{cfg: cfg})
	assert.Same(t, cfg, config.Global())

	require.Panics(t, func() {
		MustReadConfig(stubReader{err: errors.New("missing JWT_SIGNING_KEY")})
	})
	assert.Same(t, cfg, config.Global())
}
