// Package config loads the service configuration once at startup.
// Every knob has a named field and a documented default; validation happens
// here rather than at each point of use.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration for the service.
type Config struct {
	Env        string `mapstructure:"env"`
	Addr       string `mapstructure:"addr"`
	LogLevel   string `mapstructure:"log_level"`
	AdminToken string `mapstructure:"admin_token"`

	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Providers  ProviderConfig   `mapstructure:"providers"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Territory  TerritoryConfig  `mapstructure:"territory"`
}

// RedisConfig configures the durable TTL store. An empty URL means Redis is
// not configured and the in-memory store is used instead.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig configures the fire-and-forget event sink. Empty brokers mean
// events are logged instead of published.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ProviderConfig selects the address provider and carries its credentials.
type ProviderConfig struct {
	// Name selects the provider: "google", "usps", "smartystreets" or "none".
	Name                string        `mapstructure:"name"`
	GoogleAPIKey        string        `mapstructure:"google_api_key"`
	USPSUserID          string        `mapstructure:"usps_user_id"`
	SmartyAuthID        string        `mapstructure:"smarty_auth_id"`
	SmartyAuthToken     string        `mapstructure:"smarty_auth_token"`
	HTTPTimeout         time.Duration `mapstructure:"http_timeout"`
	AutocompleteEnabled bool          `mapstructure:"autocomplete_enabled"`
	ValidationEnabled   bool          `mapstructure:"validation_enabled"`
}

// ResilienceConfig tunes the per-provider rate limiter and circuit breaker.
type ResilienceConfig struct {
	RateLimitRequests       int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow         time.Duration `mapstructure:"rate_limit_window"`
	CircuitFailureThreshold int           `mapstructure:"circuit_failure_threshold"`
	CircuitRecoveryTime     time.Duration `mapstructure:"circuit_recovery_time"`
}

// CacheConfig sets result cache retention.
type CacheConfig struct {
	ValidationTTL time.Duration `mapstructure:"validation_ttl"`
	GeocodeTTL    time.Duration `mapstructure:"geocode_ttl"`
}

// TerritoryConfig tunes service-territory decisions.
type TerritoryConfig struct {
	// Strict short-circuits the territory check when address validation fails.
	Strict bool `mapstructure:"strict"`
	// DefaultUtility seeds demonstration territories on first start.
	DefaultUtility string `mapstructure:"default_utility"`
}

var validProviders = map[string]bool{
	"":              true,
	"none":          true,
	"google":        true,
	"usps":          true,
	"smartystreets": true,
}

// Load reads configuration from the environment (SERVICEPOINT_* variables)
// and an optional config file, applies defaults, and validates the result.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("env", "dev")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_token", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "servicepoint.events")

	v.SetDefault("providers.name", "none")
	v.SetDefault("providers.http_timeout", 10*time.Second)
	v.SetDefault("providers.autocomplete_enabled", true)
	v.SetDefault("providers.validation_enabled", true)

	v.SetDefault("resilience.rate_limit_requests", 100)
	v.SetDefault("resilience.rate_limit_window", 60*time.Second)
	v.SetDefault("resilience.circuit_failure_threshold", 5)
	v.SetDefault("resilience.circuit_recovery_time", 300*time.Second)

	v.SetDefault("cache.validation_ttl", 24*time.Hour)
	v.SetDefault("cache.geocode_ttl", 30*24*time.Hour)

	v.SetDefault("territory.strict", false)
	v.SetDefault("territory.default_utility", "pepco")

	v.SetEnvPrefix("SERVICEPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("servicepoint")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/servicepoint")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot work. Missing provider
// credentials are deliberately not fatal: the services fall back to
// permissive behavior so enrollment is never blocked by misconfiguration.
func (c *Config) Validate() error {
	if !validProviders[c.Providers.Name] {
		return fmt.Errorf("unknown provider %q", c.Providers.Name)
	}
	if c.Resilience.RateLimitRequests <= 0 {
		return fmt.Errorf("resilience.rate_limit_requests must be positive")
	}
	if c.Resilience.RateLimitWindow <= 0 {
		return fmt.Errorf("resilience.rate_limit_window must be positive")
	}
	if c.Resilience.CircuitFailureThreshold <= 0 {
		return fmt.Errorf("resilience.circuit_failure_threshold must be positive")
	}
	if c.Resilience.CircuitRecoveryTime <= 0 {
		return fmt.Errorf("resilience.circuit_recovery_time must be positive")
	}
	if c.Cache.ValidationTTL <= 0 || c.Cache.GeocodeTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Providers.HTTPTimeout <= 0 {
		return fmt.Errorf("providers.http_timeout must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	return nil
}
