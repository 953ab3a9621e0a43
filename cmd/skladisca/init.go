package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/skladisca/internal/config"
	"github.com/erazemk/skladisca/internal/db"
	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

var errAlreadyInitialized = errors.New("database already has users")

func newInitCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema and the admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			database, err := db.Open(cfg.DBDriver, cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			password, err := initDatabase(cmd.Context(), database, cfg.DBDriver, cfg.AdminUser)
			if err != nil {
				return err
			}
			printInitResult(cmd.OutOrStdout(), redactDSN(cfg.DBDriver, cfg.DB), cfg.AdminUser, password)
			return nil
		},
	}
}

// initDatabase ensures the schema and creates the admin user with a
// generated password. It refuses to touch a database that already has users.
func initDatabase(ctx context.Context, database *sql.DB, driver, adminUsername string) (string, error) {
	if err := db.EnsureSchema(database, driver); err != nil {
		return "", fmt.Errorf("ensuring schema: %w", err)
	}

	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return "", errAlreadyInitialized
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.CreateUser(ctx, database, adminUsername, string(hash), model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

// printInitResult prints the database initialization result.
func printInitResult(w io.Writer, location, username, password string) {
	fmt.Fprintf(w, "Database initialized: %s\n", location)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Admin account created:")
	fmt.Fprintf(w, "  Username: %s\n", username)
	fmt.Fprintf(w, "  Password: %s\n", password)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Save this password, it cannot be recovered.")
	fmt.Fprintln(w, "The admin can change it after logging in.")
}

// redactDSN hides the password of a MySQL DSN. SQLite paths pass through.
func redactDSN(driver, dsn string) string {
	if driver != db.DriverMySQL {
		return dsn
	}
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "(invalid dsn)"
	}
	if c.Passwd != "" {
		c.Passwd = "redacted"
	}
	return c.FormatDSN()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
