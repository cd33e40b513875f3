package main

import (
	"fmt"
	"os"

	"github.com/AlessLeS/ism-partners-db/internal/config"
	"github.com/AlessLeS/ism-partners-db/internal/database"
	"github.com/AlessLeS/ism-partners-db/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ism-partners",
		Short: "ISM partner and contact directory",
		Long: `Keeps the school's partner companies and their contacts in a local
SQLite database, with a web UI and spreadsheet import.

Without a subcommand the web server is started.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newImportCmd(),
		newExportCmd(),
		newHashPasswordCmd(),
	)
	return root
}

// env is what every command that touches the database needs.
type env struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	migration database.MigrationResult
}

// openEnv loads the configuration, opens the database and brings its schema
// up to date. A schema that cannot be brought up to date is fatal. serving
// adds the checks only the web server needs.
func openEnv(serving bool) (*env, error) {
	cfg := config.Load()
	validate := cfg.Validate
	if serving {
		validate = cfg.ValidateServer
	}
	if err := validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	res, err := database.EnsureSchema(db)
	if err != nil {
		_ = database.Close(db)
		log.Error("schema upgrade failed", zap.Error(err))
		return nil, err
	}
	if res.Changed() {
		log.Info("schema upgraded",
			zap.Strings("created_tables", res.CreatedTables),
			zap.Strings("added_columns", res.AddedColumns),
		)
	}
	if !database.ForeignKeysEnforced(db) {
		log.Warn("foreign keys are not enforced, contacts are removed explicitly on partner delete")
	}

	return &env{cfg: cfg, log: log, db: db, migration: res}, nil
}

func (e *env) Close() {
	_ = database.Close(e.db)
	_ = e.log.Sync()
}
