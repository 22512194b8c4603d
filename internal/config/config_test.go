package config

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, overrides map[string]interface{}) string {
	t.Helper()
	base := map[string]interface{}{
		"port":       8080,
		"jwt_secret": "secret",
		"database":   map[string]interface{}{"dsn": "postgres://localhost/ragvault"},
		"ai": map[string]interface{}{
			"embed_provider": "hash",
			"embed_dim":      32,
			"chat_provider":  "stub",
		},
		"confidential": map[string]interface{}{
			"master_key": base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		},
	}
	for key, value := range overrides {
		if value == nil {
			delete(base, key)
			continue
		}
		base[key] = value
	}
	data, err := json.Marshal(base)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, nil))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 72, cfg.JWTTTLHours)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "local", cfg.FileStore.Type)
	require.Equal(t, "static", cfg.Confidential.AttestProvider)
	require.Equal(t, 800, cfg.Chunking.MinSize)
	require.Equal(t, 1200, cfg.Chunking.MaxSize)
	require.Equal(t, 100, cfg.Chunking.Overlap)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, 30, cfg.Jobs.StaleAfterMinute)
	require.NotEmpty(t, cfg.Jobs.StaleDocSpec)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadRequiredFields(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"missing port", map[string]interface{}{"port": nil}},
		{"missing jwt secret", map[string]interface{}{"jwt_secret": nil}},
		{"missing database", map[string]interface{}{"database": nil}},
		{"missing embed provider", map[string]interface{}{"ai": map[string]interface{}{
			"chat_provider": "stub", "embed_dim": 32,
		}}},
		{"missing chat provider", map[string]interface{}{"ai": map[string]interface{}{
			"embed_provider": "hash", "embed_dim": 32,
		}}},
		{"missing embed dim", map[string]interface{}{"ai": map[string]interface{}{
			"embed_provider": "hash", "chat_provider": "stub",
		}}},
		{"missing master key", map[string]interface{}{"confidential": map[string]interface{}{}}},
		{"master key not base64", map[string]interface{}{"confidential": map[string]interface{}{
			"master_key": "not base64 !!!",
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.overrides))
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsBadChunking(t *testing.T) {
	_, err := Load(writeConfig(t, map[string]interface{}{
		"chunking": map[string]interface{}{"min_size": 800, "max_size": 1200, "overlap": 1200},
	}))
	require.Error(t, err)

	_, err = Load(writeConfig(t, map[string]interface{}{
		"chunking": map[string]interface{}{"min_size": 1300, "max_size": 1200, "overlap": 100},
	}))
	require.Error(t, err)
}

func TestLoadHostBasedDatabase(t *testing.T) {
	cfg, err := Load(writeConfig(t, map[string]interface{}{
		"database": map[string]interface{}{"host": "db.internal", "db_name": "ragvault"},
	}))
	require.NoError(t, err)
	require.Equal(t, "db.internal", cfg.Database.Host)
}
