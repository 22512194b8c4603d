package keycustody

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

func acquireTestScope(t *testing.T) *ConfidentialScope {
	t.Helper()
	custodian := newTestCustodian(t, newMemKeyStore(), false, &fakeAttest{attested: true})
	factory := NewScopeFactory(custodian)
	scope, err := factory.Acquire(context.Background(), "tenant-a")
	require.NoError(t, err)
	return scope
}

func TestScopeRoundTrip(t *testing.T) {
	scope := acquireTestScope(t)
	defer scope.Release()

	blob, err := scope.EncryptText("chunk body")
	require.NoError(t, err)
	require.NotEqual(t, "chunk body", blob)

	plain, err := scope.DecryptText(blob)
	require.NoError(t, err)
	require.Equal(t, "chunk body", plain)
}

func TestScopeUseAfterRelease(t *testing.T) {
	scope := acquireTestScope(t)

	blob, err := scope.EncryptText("chunk body")
	require.NoError(t, err)

	scope.Release()

	_, err = scope.EncryptText("more")
	require.ErrorIs(t, err, appErr.ErrScopeReleased)
	_, err = scope.DecryptText(blob)
	require.ErrorIs(t, err, appErr.ErrScopeReleased)
}

func TestScopeReleaseIdempotent(t *testing.T) {
	scope := acquireTestScope(t)
	scope.Release()
	scope.Release()
}

func TestScopesShareTenantKey(t *testing.T) {
	custodian := newTestCustodian(t, newMemKeyStore(), false, &fakeAttest{attested: true})
	factory := NewScopeFactory(custodian)
	ctx := context.Background()

	first, err := factory.Acquire(ctx, "tenant-a")
	require.NoError(t, err)
	blob, err := first.EncryptText("persisted earlier")
	require.NoError(t, err)
	first.Release()

	// A later scope for the same tenant must decrypt what an earlier one
	// wrote, releasing a scope never invalidates stored ciphertext.
	second, err := factory.Acquire(ctx, "tenant-a")
	require.NoError(t, err)
	defer second.Release()
	plain, err := second.DecryptText(blob)
	require.NoError(t, err)
	require.Equal(t, "persisted earlier", plain)
}

func TestScopeTenantMismatch(t *testing.T) {
	custodian := newTestCustodian(t, newMemKeyStore(), false, &fakeAttest{attested: true})
	factory := NewScopeFactory(custodian)
	ctx := context.Background()

	scopeA, err := factory.Acquire(ctx, "tenant-a")
	require.NoError(t, err)
	defer scopeA.Release()
	scopeB, err := factory.Acquire(ctx, "tenant-b")
	require.NoError(t, err)
	defer scopeB.Release()

	blob, err := scopeA.EncryptText("tenant a data")
	require.NoError(t, err)

	_, err = scopeB.DecryptText(blob)
	require.ErrorIs(t, err, appErr.ErrIntegrity)
}
