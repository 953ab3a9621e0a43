// Package config resolves runtime settings. Later sources override earlier
// ones: built-in defaults, a .env file, the process environment, and
// finally command-line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/joho/godotenv"

	"github.com/erazemk/skladisca/internal/db"
)

// Environment variable names.
const (
	EnvDBDriver  = "SKLADISCA_DB_DRIVER"
	EnvDB        = "SKLADISCA_DB"
	EnvAddr      = "SKLADISCA_ADDR"
	EnvLog       = "SKLADISCA_LOG"
	EnvAdmin     = "SKLADISCA_ADMIN"
	EnvRedisAddr = "REDIS_ADDR"
	EnvRedisPass = "REDIS_PASS"
)

// Config holds the server settings.
type Config struct {
	DBDriver  string
	DB        string // SQLite path or MySQL DSN
	Addr      string
	LogPath   string
	AdminUser string

	// Redis enables cross-process stock locks when RedisAddr is set.
	RedisAddr     string
	RedisPassword string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBDriver:  db.DriverSQLite,
		DB:        "skladisca.sqlite3",
		Addr:      ":8080",
		AdminUser: "Admin",
	}
}

// Load returns the defaults overridden by envFile (if it exists) and then
// by the environment. Values in envFile never leak into the process
// environment.
func Load(envFile string) (Config, error) {
	cfg := Default()

	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading %s: %w", envFile, err)
		default:
			fileVars = vars
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	for key, field := range map[string]*string{
		EnvDBDriver:  &cfg.DBDriver,
		EnvDB:        &cfg.DB,
		EnvAddr:      &cfg.Addr,
		EnvLog:       &cfg.LogPath,
		EnvAdmin:     &cfg.AdminUser,
		EnvRedisAddr: &cfg.RedisAddr,
		EnvRedisPass: &cfg.RedisPassword,
	} {
		if v, ok := lookup(key); ok {
			*field = v
		}
	}

	return cfg, nil
}

// Validate checks that the settings can be used to start the server.
func (c Config) Validate() error {
	if c.DBDriver != db.DriverSQLite && c.DBDriver != db.DriverMySQL {
		return fmt.Errorf("unsupported database driver %q (sqlite or mysql)", c.DBDriver)
	}
	if c.DB == "" {
		return errors.New("database path or DSN is required")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Addr, err)
	}
	if c.AdminUser == "" {
		return errors.New("admin username is required")
	}
	if c.RedisAddr != "" {
		if _, _, err := net.SplitHostPort(c.RedisAddr); err != nil {
			return fmt.Errorf("invalid redis address %q: %w", c.RedisAddr, err)
		}
	}
	return nil
}
