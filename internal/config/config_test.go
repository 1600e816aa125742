package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseArgs_Defaults(t *testing.T) {
	opts, err := ParseArgs([]string{"-storage", "memory", "-c", ""}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Address)
	assert.Equal(t, StorageMemory, opts.Storage)
	assert.Equal(t, "postgres", opts.DatabaseDriver)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, 30*24*time.Hour, opts.SessionTTL)
	assert.Equal(t, time.Hour, opts.SessionCleanupInterval)
	assert.Equal(t, 10, opts.BcryptCost)
	assert.False(t, opts.CookieSecure)
	assert.False(t, opts.ConcealForeignResources)
}

func TestParseArgs_PostgresRequiresDSN(t *testing.T) {
	_, err := ParseArgs([]string{"-c", ""}, envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database dsn is required")
}

func TestParseArgs_Flags(t *testing.T) {
	opts, err := ParseArgs([]string{
		"-a", ":9090",
		"-d", "postgres://u:p@db/timeledger",
		"-driver", "pgx",
		"-session-ttl", "2h",
		"-session-cleanup", "0s",
		"-cookie-secure",
		"-conceal-foreign",
		"-bcrypt-cost", "4",
		"-c", "",
	}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":9090", opts.Address)
	assert.Equal(t, "postgres://u:p@db/timeledger", opts.DatabaseDSN)
	assert.Equal(t, "pgx", opts.DatabaseDriver)
	assert.Equal(t, 2*time.Hour, opts.SessionTTL)
	assert.Equal(t, time.Duration(0), opts.SessionCleanupInterval)
	assert.True(t, opts.CookieSecure)
	assert.True(t, opts.ConcealForeignResources)
	assert.Equal(t, 4, opts.BcryptCost)
}

func TestParseArgs_EnvOverridesFlags(t *testing.T) {
	opts, err := ParseArgs([]string{"-a", ":9090", "-storage", "memory", "-c", ""}, envMap(map[string]string{
		"SERVER_ADDRESS": ":7070",
		"LOG_LEVEL":      "debug",
		"SESSION_TTL":    "1h",
		"COOKIE_SECURE":  "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":7070", opts.Address)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, time.Hour, opts.SessionTTL)
	assert.True(t, opts.CookieSecure)
}

func TestParseArgs_BadEnv(t *testing.T) {
	_, err := ParseArgs([]string{"-storage", "memory", "-c", ""}, envMap(map[string]string{"SESSION_TTL": "soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestParseArgs_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"address": ":8443",
		"storage": "memory",
		"session_ttl": "48h",
		"conceal_foreign_resources": true,
		"bcrypt_cost": 12
	}`), 0o600))

	opts, err := ParseArgs([]string{"-config", path}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8443", opts.Address)
	assert.Equal(t, StorageMemory, opts.Storage)
	assert.Equal(t, 48*time.Hour, opts.SessionTTL)
	assert.True(t, opts.ConcealForeignResources)
	assert.Equal(t, 12, opts.BcryptCost)
}

func TestParseArgs_YAMLFileBelowFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: \":8443\"\nstorage: memory\nlog_level: warn\n"), 0o600))

	opts, err := ParseArgs([]string{"-c=" + path, "-a", ":9999"}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":9999", opts.Address)
	assert.Equal(t, "warn", opts.LogLevel)
}

func TestParseArgs_ConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage: memory\ncookie_secure: true\n"), 0o600))

	opts, err := ParseArgs(nil, envMap(map[string]string{"CONFIG": path}))
	require.NoError(t, err)
	assert.True(t, opts.CookieSecure)
}

func TestParseArgs_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := ParseArgs([]string{"-c", path}, envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"unknown storage", func(o *Options) { o.Storage = "redis" }},
		{"unknown driver", func(o *Options) { o.DatabaseDriver = "mysql" }},
		{"zero ttl", func(o *Options) { o.SessionTTL = 0 }},
		{"cert without key", func(o *Options) { o.TLSCert = "server.crt" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := Defaults()
			o.Storage = StorageMemory
			tc.mutate(o)
			assert.Error(t, o.validate())
		})
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	assert.Equal(t, "a.json", configPathFromArgs([]string{"-c", "a.json"}))
	assert.Equal(t, "b.yaml", configPathFromArgs([]string{"--config=b.yaml"}))
	assert.Equal(t, "", configPathFromArgs([]string{"-a", ":80"}))
	assert.Equal(t, "", configPathFromArgs([]string{"c"}))
}
