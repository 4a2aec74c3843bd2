package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds the creditgate service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Billing   BillingConfig   `yaml:"billing"`
	Gate      GateConfig      `yaml:"gate"`
	Stripe    StripeConfig    `yaml:"stripe"`
	LLM       LLMConfig       `yaml:"llm"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	APIKeys   []string `yaml:"api_keys"`   // admin routes
	JWTSecret string   `yaml:"jwt_secret"` // Supabase HS256 secret
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	RESP2            bool     `yaml:"resp2"` // redis/valkey behind RESP2-only proxies
	DSN              string   `yaml:"dsn"` // postgres only
	MaxConns         int32    `yaml:"max_conns"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BillingConfig holds credit ledger settings.
type BillingConfig struct {
	PaymentLinkURL string `yaml:"payment_link_url"`
	LazyReset      *bool  `yaml:"lazy_reset"` // default: true
}

// GateConfig holds gate session settings.
type GateConfig struct {
	SessionTTLSec    int `yaml:"session_ttl_sec"`
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
}

// StripeConfig holds webhook settings.
type StripeConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
	ToleranceSec  int    `yaml:"tolerance_sec"`
	CheckoutPlan  string `yaml:"checkout_plan"`
	EventTTLHours int    `yaml:"event_ttl_hours"` // KV drivers only, 0 = keep forever
}

// LLMConfig holds the advice provider settings. An empty api_key disables advice.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// RateLimitConfig holds the per-user limiter settings for LLM routes.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SessionTTL returns the gate session idle timeout.
func (g GateConfig) SessionTTL() time.Duration {
	return time.Duration(g.SessionTTLSec) * time.Second
}

// SweepInterval returns the rate limiter prune period.
func (g GateConfig) SweepInterval() time.Duration {
	return time.Duration(g.SweepIntervalSec) * time.Second
}

// Tolerance returns the accepted signature age.
func (s StripeConfig) Tolerance() time.Duration {
	return time.Duration(s.ToleranceSec) * time.Second
}

// EventTTL returns how long processed events are kept, 0 for ever.
func (s StripeConfig) EventTTL() time.Duration {
	return time.Duration(s.EventTTLHours) * time.Hour
}

// LazyResetEnabled reports whether the free-plan refill runs on read.
func (b BillingConfig) LazyResetEnabled() bool {
	return b.LazyReset == nil || *b.LazyReset
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60 // LLM calls
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Gate.SessionTTLSec <= 0 {
		c.Gate.SessionTTLSec = 1800
	}
	if c.Gate.SweepIntervalSec <= 0 {
		c.Gate.SweepIntervalSec = 60
	}
	if c.Stripe.ToleranceSec <= 0 {
		c.Stripe.ToleranceSec = 300
	}
	if c.Stripe.CheckoutPlan == "" {
		c.Stripe.CheckoutPlan = "STARTER"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "deepseek"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.deepseek.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "deepseek-chat"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 600
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.7
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = 0.5
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 3
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "creditgate:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be valkey, redis or postgres, got %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch strings.ToUpper(c.Stripe.CheckoutPlan) {
	case "STARTER", "PRO":
		// ok
	default:
		return fmt.Errorf("stripe.checkout_plan must be STARTER or PRO, got %q", c.Stripe.CheckoutPlan)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
