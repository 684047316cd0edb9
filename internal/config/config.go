// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	FoodFacts FoodFactsConfig `yaml:"foodfacts"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	APIKeys     []string `yaml:"api_keys"`
	CORSOrigins string   `yaml:"cors_origins"`
	RateLimit   float64  `yaml:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst"`
	// TrustedProxies lists the IPs or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are believed.
	TrustedProxies []string `yaml:"trusted_proxies"`
	// PublicURL prefixes the message endpoint announced to SSE clients.
	// Empty announces a path relative to the stream URL.
	PublicURL string `yaml:"public_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GatewayConfig points at the completion gateway used for meal image analysis.
type GatewayConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type FoodFactsConfig struct {
	BaseURL           string  `yaml:"base_url"`
	UserAgent         string  `yaml:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type AnalysisConfig struct {
	// AIJunkScale is the upper bound of the junk score the model is asked for.
	AIJunkScale float64 `yaml:"ai_junk_scale"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8011,
			CORSOrigins: "*",
			RateLimit:   20,
			RateBurst:   40,
		},
		Database: DatabaseConfig{Path: "/data/nutrition-scan.db"},
		Gateway: GatewayConfig{
			URL:            "http://mcp-compose-http-proxy:9876",
			Model:          "openai/gpt-4o",
			TimeoutSeconds: 60,
		},
		FoodFacts: FoodFactsConfig{
			BaseURL:           "https://world.openfoodfacts.org",
			UserAgent:         "mcp-nutrition-scan/1.0",
			RequestsPerSecond: 10,
		},
		Analysis: AnalysisConfig{AIJunkScale: 10},
		LogLevel: "info",
	}
}

// Load builds a config from defaults, then the YAML file at path (if any),
// then a .env file in the working directory, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("HOST", &c.Server.Host)
	integer("PORT", &c.Server.Port)
	if v, ok := lookup("API_KEYS"); ok && v != "" {
		c.Server.APIKeys = splitList(v)
	}
	str("CORS_ORIGINS", &c.Server.CORSOrigins)
	num("RATE_LIMIT", &c.Server.RateLimit)
	integer("RATE_BURST", &c.Server.RateBurst)
	str("PUBLIC_URL", &c.Server.PublicURL)
	if v, ok := lookup("TRUSTED_PROXIES"); ok && v != "" {
		c.Server.TrustedProxies = splitList(v)
	}

	str("DB_PATH", &c.Database.Path)

	str("MCP_PROXY_URL", &c.Gateway.URL)
	str("MCP_PROXY_API_KEY", &c.Gateway.APIKey)
	str("OPENROUTER_MODEL", &c.Gateway.Model)
	integer("GATEWAY_TIMEOUT_SECONDS", &c.Gateway.TimeoutSeconds)

	str("OFF_BASE_URL", &c.FoodFacts.BaseURL)
	str("OFF_USER_AGENT", &c.FoodFacts.UserAgent)
	num("OFF_RATE_LIMIT", &c.FoodFacts.RequestsPerSecond)

	num("AI_JUNK_SCALE", &c.Analysis.AIJunkScale)
	str("LOG_LEVEL", &c.LogLevel)

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.Analysis.AIJunkScale <= 0 {
		errs = append(errs, fmt.Errorf("ai junk scale must be positive, got %v", c.Analysis.AIJunkScale))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("rate limit must be positive, got %v", c.Server.RateLimit))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MessageEndpoint is where SSE clients post their JSON-RPC messages.
func (c *Config) MessageEndpoint() string {
	return strings.TrimRight(c.Server.PublicURL, "/") + "/message"
}

func (c *Config) GatewayTimeout() time.Duration {
	if c.Gateway.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// TrustedProxyPrefixes parses Server.TrustedProxies. A bare address is
// treated as a single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.Server.TrustedProxies))
	for _, entry := range c.Server.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// splitList splits a comma-separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
