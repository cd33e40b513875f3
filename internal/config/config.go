package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DBDriver      string
	DBPath        string
	DBDSN         string
	DBMaxAttempts int
	ServerPort    string
	SessionSecret string
	UsersPath     string
	UploadDir     string
	LogLevel      string
	LogFormat     string
}

// Load reads .env (if present) and the process environment. Files default to
// the directory holding the executable so the database does not depend on the
// working directory.
func Load() *Config {
	_ = godotenv.Load()

	base := appDir()
	return &Config{
		DBDriver:      getenv("DB_DRIVER", DriverSQLite),
		DBPath:        getenv("DB_PATH", filepath.Join(base, "ism_partners.db")),
		DBDSN:         os.Getenv("DB_DSN"),
		DBMaxAttempts: parseInt("DB_MAX_ATTEMPTS", 5),
		ServerPort:    getenv("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		UsersPath:     getenv("USERS_PATH", filepath.Join(base, "users.yaml")),
		UploadDir:     getenv("UPLOAD_DIR", filepath.Join(os.TempDir(), "ism-partners-uploads")),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "json"),
	}
}

// Validate checks the values every command needs. ValidateServer adds the
// ones only the HTTP server uses.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is not set")
		}
	case DriverPostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is not set")
		}
	default:
		return errors.New("DB_DRIVER must be sqlite or postgres, got " + strconv.Quote(c.DBDriver))
	}
	return nil
}

func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	return nil
}

func appDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseInt(env string, def int) int {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
