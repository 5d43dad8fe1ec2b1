package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHashKey = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COOKIE_HASH_KEY", testHashKey)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err, "an explicitly named env file has to exist")

	envFile := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))

	cfg, err = Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "/", cfg.Cookie.Path)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, time.Hour, cfg.PurgeInterval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"COOKIE_HASH_KEY=" + testHashKey,
		"COOKIE_PREFIX=bar_",
		"COOKIE_DOMAIN=bar.example",
		"DATABASE_TABLE_PREFIX=bar_",
		"PURGE_INTERVAL=15m",
		"LOG_FORMAT=console",
	}, "\n")
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// the environment wins over the file
	t.Setenv("COOKIE_DOMAIN", "override.example")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "bar_", cfg.Cookie.Prefix)
	assert.Equal(t, "override.example", cfg.Cookie.Domain)
	assert.Equal(t, "bar_", cfg.DatabaseTablePrefix)
	assert.Equal(t, 15*time.Minute, cfg.PurgeInterval)

	transport := cfg.Cookie.Transport()
	assert.Equal(t, []byte(testHashKey), transport.HashKey)
	assert.Nil(t, transport.BlockKey)

	// godotenv sets the variables from the file in the process environment
	for _, key := range []string{"COOKIE_HASH_KEY", "COOKIE_PREFIX", "DATABASE_TABLE_PREFIX", "PURGE_INTERVAL", "LOG_FORMAT"} {
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadRequiresHashKey(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))

	t.Setenv("COOKIE_HASH_KEY", "")
	require.NoError(t, os.Unsetenv("COOKIE_HASH_KEY"))

	_, err := Load(envFile)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		ListenAddr: ":8080",
		Cookie:     CookieConfig{HashKey: testHashKey},
		LogFormat:  "json",
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"short_hash_key":    func(c *Config) { c.Cookie.HashKey = "short" },
		"bad_block_key":     func(c *Config) { c.Cookie.BlockKey = "seven77" },
		"bad_log_format":    func(c *Config) { c.LogFormat = "xml" },
		"negative_purge":    func(c *Config) { c.PurgeInterval = -time.Second },
		"empty_listen_addr": func(c *Config) { c.ListenAddr = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}
