// Package account resolves per-user credentials: the durable refresh tokens
// stored for each identity provider, and the broker that exchanges them for
// short-lived access tokens.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdentityNotFound reports that no stored credential exists for the
// (user, provider) pair.
var ErrIdentityNotFound = errors.New("identity not found")

// Store reads durable per-user credentials. The stored tokens are read-only
// to this process; nothing here ever mutates them.
type Store interface {
	// GetRefreshToken returns the refresh token stored for the user at the
	// given identity provider.
	GetRefreshToken(ctx context.Context, userID, providerID string) (string, error)

	// GetAPIToken returns the user's own generation-engine API key.
	GetAPIToken(ctx context.Context, userID string) (string, error)
}

// PGStore reads credentials from Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) GetRefreshToken(ctx context.Context, userID, providerID string) (string, error) {
	var refreshToken string
	err := s.pool.QueryRow(ctx,
		`SELECT refresh_token FROM account WHERE provider_id = $1 AND user_id = $2`,
		providerID, userID,
	).Scan(&refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: user=%s provider=%s", ErrIdentityNotFound, userID, providerID)
		}
		return "", fmt.Errorf("failed to query refresh token: %w", err)
	}
	return refreshToken, nil
}

func (s *PGStore) GetAPIToken(ctx context.Context, userID string) (string, error) {
	var token string
	err := s.pool.QueryRow(ctx,
		`SELECT api_token FROM user_api_tokens WHERE user_id = $1`,
		userID,
	).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: user=%s", ErrIdentityNotFound, userID)
		}
		return "", fmt.Errorf("failed to query api token: %w", err)
	}
	return token, nil
}
