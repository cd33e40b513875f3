package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlessLeS/ism-partners-db/internal/config"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. Postgres gets a few attempts
// since it usually starts alongside the app in compose setups; SQLite is a
// local file and either opens or not.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.New(gormWriter{log.Sugar()}, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
		}),
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		return openPostgres(cfg, gcfg, log)
	default:
		return OpenSQLite(cfg.DBPath, gcfg)
	}
}

// OpenSQLite opens (creating if needed) the SQLite file at path with foreign
// keys enforced.
func OpenSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func openPostgres(cfg *config.Config, gcfg *gorm.Config, log *zap.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= cfg.DBMaxAttempts; i++ {
		log.Info("connecting to postgres", zap.Int("attempt", i), zap.Int("max_attempts", cfg.DBMaxAttempts))

		db, err = gorm.Open(postgres.Open(cfg.DBDSN), gcfg)
		if err == nil {
			return db, nil
		}

		log.Warn("postgres connection failed", zap.Error(err))
		if i < cfg.DBMaxAttempts {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", cfg.DBMaxAttempts, err)
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormWriter struct {
	s *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.s.Warnf(format, args...)
}
