package app

import (
	"github.com/spf13/cobra"

	"github.com/adanyl0v/tasklist/internal/config"
)

// NewRootCommand builds the tasklist CLI. Running it without a subcommand
// is the same as "serve".
func NewRootCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task list HTTP API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			serve()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			boot()
			defer CloseStorage()
			MustMigrateStorage()
		},
	}

	rootCmd := &cobra.Command{
		Use:   "tasklist",
		Short: "Personal task list service",
		Long: `tasklist serves a personal task list over HTTP.

Configuration is read from the environment (and a .env file if present):
  ENV                      local, dev or prod
  STORAGE_DRIVER           postgres (default) or sqlite
  STORAGE_AUTO_MIGRATE     apply migrations on serve (default: true)
  POSTGRES_HOST ...        connection settings for the postgres driver
  SQLITE_PATH              database file for the sqlite driver
  JWT_SIGNING_KEY          HMAC key for identity tokens, at least 32 bytes
  JWT_ACCESS_TOKEN_TTL     identity token lifetime (default: 168h)
  TASKS_REORDER_TIMEOUT    time budget of one reorder batch (default: 5s)`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			serve()
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd, migrateCmd)
	return rootCmd
}

func boot() {
	InitDefaultLogger()
	MustReadConfig(config.NewEnvReader())
	MustInitApplicationLogger()
	MustOpenStorage()
}

func serve() {
	boot()
	defer CloseStorage()

	if config.Global().Storage.AutoMigrate {
		MustMigrateStorage()
	}
	MustListenAndServeHTTP()
}
