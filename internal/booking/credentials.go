package booking

import (
	"context"
	"strings"
	"sync"
	"time"
)

// CredentialStore looks up a user's integration credential just in time.
// Implementations return ErrNotConfigured when none exists.
type CredentialStore interface {
	GetCredential(ctx context.Context, userID string) (*Credential, error)
}

// MemoryCredentialStore keeps credentials in process. Used when no database is
// configured and in tests.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryCredentialStore creates an empty store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]Credential)}
}

// Put stores or replaces the credential for cred.UserID.
func (s *MemoryCredentialStore) Put(cred Credential) {
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.UserID] = cred
}

// GetCredential implements CredentialStore.
func (s *MemoryCredentialStore) GetCredential(_ context.Context, userID string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[userID]
	if !ok || strings.TrimSpace(cred.AccessToken) == "" {
		return nil, ErrNotConfigured
	}
	return &cred, nil
}
