package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "waypoint.yaml", `
backend: redis
mode: hash
hash_type: hashbang
max_entries: "50"
redis:
  addr: redis:6379
  ttl: 30m
  lock: true
http:
  addr: ":9000"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.BackendRedis, cfg.Backend)
	assert.Equal(t, config.ModeHash, cfg.Mode)
	assert.Equal(t, "hashbang", cfg.HashType)
	assert.Equal(t, 50, cfg.MaxEntries)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Redis.TTL)
	assert.True(t, cfg.Redis.Lock)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)

	// Untouched values keep their defaults.
	assert.Equal(t, "waypoint:history:", cfg.Redis.Prefix)
	assert.True(t, cfg.HTTP.Metrics)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "waypoint.json", `{"backend": "memory", "max_entries": 3, "file": {"path": "/tmp/x"}}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Backend)
	assert.Equal(t, 3, cfg.MaxEntries)
	assert.Equal(t, "/tmp/x", cfg.File.Path)
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = config.Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		is      error
	}{
		{"UnknownBackend", "backend: etcd", domain.ErrUnknownBackend},
		{"UnknownMode", "mode: tabs", nil},
		{"UnknownHashType", "hash_type: bang", nil},
		{"NegativeMax", "max_entries: -1", nil},
		{"UnknownKey", "colour: blue", nil},
		{"BadEncryptionKey", "security:\n  encryption_key: c2hvcnQ=", nil},
		{"FallbackWithoutKey", "security:\n  fallback_keys: [c2hvcnQ=]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "c.yaml", tt.content))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestSecurityConfig_Keys(t *testing.T) {
	active, fallback, err := config.SecurityConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	active, fallback, err = config.SecurityConfig{EncryptionKey: key, FallbackKeys: []string{key}}.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 1)

	path := writeFile(t, "c.yaml", "security:\n  encryption_key: "+key+"\n  mask_keys: [password]\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"password"}, cfg.Security.MaskKeys)
}
