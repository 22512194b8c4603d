package keycustody

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/ragvault/ragvault/internal/attest"
	"github.com/ragvault/ragvault/internal/model"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
	"github.com/ragvault/ragvault/internal/pkg/timeutil"
)

const (
	KeySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// KeyStore is the narrow persistence contract the custodian needs. Create
// must reject a second record per tenant with ErrConflict.
type KeyStore interface {
	Create(ctx context.Context, key *model.TenantKey) error
	GetByTenant(ctx context.Context, tenantID string) (*model.TenantKey, error)
}

type Custodian struct {
	store       KeyStore
	attestation attest.Provider
	require     bool
	wrapKey     []byte
}

// NewCustodian derives the wrap key from the deployment master secret via
// HKDF-SHA256 so the raw secret never touches the cipher directly.
func NewCustodian(store KeyStore, attestation attest.Provider, requireAttestation bool, masterSecret []byte) (*Custodian, error) {
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("master secret is required")
	}
	reader := hkdf.New(sha256.New, masterSecret, nil, []byte("ragvault/tenant-key-wrap/v1"))
	wrapKey := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, wrapKey); err != nil {
		return nil, fmt.Errorf("derive wrap key: %w", err)
	}
	return &Custodian{
		store:       store,
		attestation: attestation,
		require:     requireAttestation,
		wrapKey:     wrapKey,
	}, nil
}

func (c *Custodian) IsAttested(ctx context.Context) bool {
	if !c.require {
		return true
	}
	return c.attestation.IsAttested(ctx)
}

// GetOrCreateTenantKey releases the tenant's raw data key. Release is
// fail-closed: no attestation, no key, no partial result. First-time callers
// racing on the same tenant resolve through the store's unique constraint,
// the loser re-reads the winner's record.
func (c *Custodian) GetOrCreateTenantKey(ctx context.Context, tenantID string) ([]byte, error) {
	if !c.IsAttested(ctx) {
		return nil, appErr.ErrAttestationFailed
	}
	record, err := c.store.GetByTenant(ctx, tenantID)
	if err == nil {
		return c.unwrap(record.WrappedKey)
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}

	rawKey := make([]byte, KeySize)
	if _, err := rand.Read(rawKey); err != nil {
		return nil, fmt.Errorf("generate tenant key: %w", err)
	}
	wrapped, err := Encrypt(c.wrapKey, rawKey)
	if err != nil {
		return nil, fmt.Errorf("wrap tenant key: %w", err)
	}
	record = &model.TenantKey{
		ID:         newID(),
		TenantID:   tenantID,
		WrappedKey: wrapped,
		Ctime:      timeutil.NowUnix(),
	}
	if err := c.store.Create(ctx, record); err != nil {
		if appErr.IsConflict(err) {
			// Lost the race, another request persisted the key first.
			existing, getErr := c.store.GetByTenant(ctx, tenantID)
			if getErr != nil {
				return nil, getErr
			}
			return c.unwrap(existing.WrappedKey)
		}
		return nil, err
	}
	logutil.GetLogger(ctx).Info("tenant key created", zap.String("tenant_id", tenantID))
	return rawKey, nil
}

func (c *Custodian) unwrap(wrapped string) ([]byte, error) {
	key, err := Decrypt(c.wrapKey, wrapped)
	if err != nil {
		return nil, err
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: unwrapped key has bad length %d", appErr.ErrIntegrity, len(key))
	}
	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM using a fresh random nonce. Wire
// format: base64(nonce[12] || tag[16] || ciphertext).
func Encrypt(key, plaintext []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	cipherLen := len(sealed) - tagSize
	payload := make([]byte, 0, nonceSize+len(sealed))
	payload = append(payload, nonce...)
	payload = append(payload, sealed[cipherLen:]...)
	payload = append(payload, sealed[:cipherLen]...)
	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt reverses Encrypt. Any malformed payload or tag mismatch is an
// integrity violation, callers must treat the record as unusable rather than
// serve partial plaintext.
func Decrypt(key []byte, blob string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: bad encoding", appErr.ErrIntegrity)
	}
	if len(payload) < nonceSize+tagSize {
		return nil, fmt.Errorf("%w: payload too short", appErr.ErrIntegrity)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := payload[:nonceSize]
	tag := payload[nonceSize : nonceSize+tagSize]
	ciphertext := payload[nonceSize+tagSize:]
	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, appErr.ErrIntegrity
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
