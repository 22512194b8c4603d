package keycustody

import (
	"context"
	"sync"

	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

// ConfidentialScope bounds the lifetime of a released tenant key to one unit
// of work. Release zeroes the key and any later use fails with
// ErrScopeReleased instead of operating on stale bytes.
type ConfidentialScope struct {
	tenantID string
	mu       sync.Mutex
	key      []byte
	released bool
}

func (s *ConfidentialScope) TenantID() string {
	return s.tenantID
}

// EncryptText seals the given plaintext under the scope's key.
func (s *ConfidentialScope) EncryptText(plaintext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return "", appErr.ErrScopeReleased
	}
	return Encrypt(s.key, []byte(plaintext))
}

func (s *ConfidentialScope) DecryptText(blob string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return "", appErr.ErrScopeReleased
	}
	plaintext, err := Decrypt(s.key, blob)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Release is idempotent and safe to defer on every exit path.
func (s *ConfidentialScope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	for i := range s.key {
		s.key[i] = 0
	}
	s.key = nil
	s.released = true
}

type ScopeFactory struct {
	custodian *Custodian
}

func NewScopeFactory(custodian *Custodian) *ScopeFactory {
	return &ScopeFactory{custodian: custodian}
}

// Acquire releases the tenant's key into a fresh scope. Scopes are never
// cached or shared across requests.
func (f *ScopeFactory) Acquire(ctx context.Context, tenantID string) (*ConfidentialScope, error) {
	key, err := f.custodian.GetOrCreateTenantKey(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &ConfidentialScope{tenantID: tenantID, key: key}, nil
}
