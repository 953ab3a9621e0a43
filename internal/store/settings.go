package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// GetJWTSecret returns the JWT signing secret, generating and storing one on
// first use. When two processes race on startup the insert of the loser
// fails and both read back the winner's value.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	secret, err := getSetting(ctx, q, "jwt_secret")
	if err != nil {
		return "", err
	}
	if secret != "" {
		return secret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	// Ignored: a concurrent insert wins and is read back below.
	_, _ = q.ExecContext(ctx,
		`INSERT INTO settings (name, value) VALUES ('jwt_secret', ?)`,
		hex.EncodeToString(buf),
	)

	secret, err = getSetting(ctx, q, "jwt_secret")
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("storing jwt_secret: setting missing after insert")
	}
	return secret, nil
}

func getSetting(ctx context.Context, q Querier, name string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = ?`, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", name, err)
	}
	return value, nil
}
