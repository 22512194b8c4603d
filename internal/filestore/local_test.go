package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragvault/ragvault/internal/config"
)

func newLocalStore(t *testing.T) Store {
	t.Helper()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLocalSaveOpen(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	body := "uploaded document bytes"
	require.NoError(t, store.Save(ctx, "tenant-a/doc-1-notes.txt", strings.NewReader(body), int64(len(body))))

	reader, err := store.Open(ctx, "tenant-a/doc-1-notes.txt")
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, body, string(data))
}

func TestLocalOpenMissing(t *testing.T) {
	store := newLocalStore(t)
	_, err := store.Open(context.Background(), "tenant-a/nope")
	require.Error(t, err)
}

func TestLocalRejectsBadKeys(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/../../b", "/absolute", "win\\path"} {
		err := store.Save(ctx, key, strings.NewReader("x"), 1)
		require.Error(t, err, "key %q", key)
	}
}

func TestNewUnknownStoreType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "tape"})
	require.Error(t, err)
}
