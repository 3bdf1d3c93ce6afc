package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCredentialStore reads credentials from the calendly_integrations table.
type PostgresCredentialStore struct {
	pool rowQuerier
}

// NewPostgresCredentialStore initializes a store backed by pgxpool.
func NewPostgresCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &PostgresCredentialStore{pool: pool}
}

func newPostgresCredentialStoreWithQuerier(q rowQuerier) *PostgresCredentialStore {
	if q == nil {
		panic("booking: querier required")
	}
	return &PostgresCredentialStore{pool: q}
}

// GetCredential implements CredentialStore.
func (s *PostgresCredentialStore) GetCredential(ctx context.Context, userID string) (*Credential, error) {
	query := `
		SELECT user_id, access_token, COALESCE(bridge_url, ''), updated_at
		FROM calendly_integrations
		WHERE user_id = $1
	`
	var cred Credential
	if err := s.pool.QueryRow(ctx, query, userID).Scan(
		&cred.UserID,
		&cred.AccessToken,
		&cred.BridgeURL,
		&cred.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("booking: query credential: %w", err)
	}
	if strings.TrimSpace(cred.AccessToken) == "" {
		return nil, ErrNotConfigured
	}
	return &cred, nil
}
