package creditgate

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string
	resp2    bool

	keyPrefix   string
	paymentLink string
	sessionTTL  time.Duration
	lazyReset   bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		keyPrefix:  "creditgate:",
		sessionTTL: 30 * time.Minute,
		lazyReset:  true,
	}
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRESP2 forces the RESP2 protocol, for Redis < 6 and proxies without RESP3.
func WithRESP2() Option {
	return optionFunc(func(c *clientConfig) {
		c.resp2 = true
	})
}

// WithKeyPrefix sets the key namespace. It must match the service's storage.key_prefix
// when both share a database. Default: "creditgate:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithPaymentLink sets the checkout URL returned in gate views.
func WithPaymentLink(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.paymentLink = url
	})
}

// WithSessionTTL sets how long an idle gate session lives. Default: 30m.
func WithSessionTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.sessionTTL = ttl
	})
}

// WithLazyReset toggles refilling due accounts on read. Default: enabled.
func WithLazyReset(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.lazyReset = enabled
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
