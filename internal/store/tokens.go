package store

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken adds a token's JTI to the revocation list. Revoking a token
// twice is not an error.
func RevokeToken(ctx context.Context, q Querier, jti string, expiresAt time.Time) error {
	revoked, err := IsTokenRevoked(ctx, q, jti)
	if err != nil {
		return err
	}
	if revoked {
		return nil
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		// Lost a race with a concurrent logout of the same token.
		if again, _ := IsTokenRevoked(ctx, q, jti); again {
			return nil
		}
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, q Querier, jti string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}

// PruneRevokedTokens deletes revocations whose tokens have expired by now
// and returns how many were removed.
func PruneRevokedTokens(ctx context.Context, q Querier, now time.Time) (int64, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning revoked tokens: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading pruned count: %w", err)
	}
	return n, nil
}
