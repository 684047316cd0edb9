package config

import (
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8011", cfg.Addr())
	assert.Equal(t, 60*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, 10.0, cfg.Analysis.AIJunkScale)
	assert.Equal(t, "/message", cfg.MessageEndpoint())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HOST", "PORT", "API_KEYS", "DB_PATH", "AI_JUNK_SCALE", "LOG_LEVEL", "OFF_BASE_URL", "TRUSTED_PROXIES", "PUBLIC_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9000
  api_keys: [k1, k2]
  trusted_proxies: [10.0.0.0/8]
database:
  path: /tmp/x.db
analysis:
  ai_junk_scale: 5
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 5.0, cfg.Analysis.AIJunkScale)
	// untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "https://world.openfoodfacts.org", cfg.FoodFacts.BaseURL)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"PORT":              "8080",
		"API_KEYS":          "a, b,",
		"DB_PATH":           "/var/lib/scan.db",
		"MCP_PROXY_URL":     "http://gw:1",
		"OPENROUTER_MODEL":  "vision-model",
		"OFF_RATE_LIMIT":    "2.5",
		"AI_JUNK_SCALE":     "100",
		"CORS_ORIGINS":      "",
		"MCP_PROXY_API_KEY": "secret",
		"TRUSTED_PROXIES":   "10.0.0.0/8, 192.0.2.1",
		"PUBLIC_URL":        "https://scan.example/",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"a", "b"}, cfg.Server.APIKeys)
	assert.Equal(t, "/var/lib/scan.db", cfg.Database.Path)
	assert.Equal(t, "http://gw:1", cfg.Gateway.URL)
	assert.Equal(t, "secret", cfg.Gateway.APIKey)
	assert.Equal(t, "vision-model", cfg.Gateway.Model)
	assert.Equal(t, 2.5, cfg.FoodFacts.RequestsPerSecond)
	assert.Equal(t, 100.0, cfg.Analysis.AIJunkScale)
	assert.Equal(t, "*", cfg.Server.CORSOrigins, "empty values are ignored")
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "https://scan.example/message", cfg.MessageEndpoint())
}

func TestApplyEnv_InvalidNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{"PORT": "eighty", "AI_JUNK_SCALE": "x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "AI_JUNK_SCALE")
	assert.Equal(t, 8011, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Database.Path = " "
	cfg.Analysis.AIJunkScale = 0
	cfg.LogLevel = "loud"
	cfg.Server.TrustedProxies = []string{"proxy.internal"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"port", "database path", "junk scale", "log level", "trusted proxy"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestTrustedProxyPrefixes(t *testing.T) {
	cfg := Default()
	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Empty(t, prefixes, "no proxy is trusted by default")

	cfg.Server.TrustedProxies = []string{"10.1.2.3/8", "192.0.2.1", "::ffff:198.51.100.1", "2001:db8::/32"}
	prefixes, err = cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.1/32"),
		netip.MustParsePrefix("198.51.100.1/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, prefixes)

	cfg.Server.TrustedProxies = []string{"10.0.0.0/99"}
	_, err = cfg.TrustedProxyPrefixes()
	assert.ErrorContains(t, err, "10.0.0.0/99")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(" , "))
}
