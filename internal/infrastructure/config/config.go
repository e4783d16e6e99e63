package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go-sse-broadcast/internal/infrastructure/logger"
)

// Config is the full service configuration. Values come from an optional
// config.yml and from SSE_-prefixed environment variables, env taking
// precedence.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Stream    StreamConfig    `mapstructure:"stream"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type RegistryConfig struct {
	MaxConnections    int           `mapstructure:"max_connections"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ClientTimeout     time.Duration `mapstructure:"client_timeout"`
	WelcomeDelay      time.Duration `mapstructure:"welcome_delay"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type StreamConfig struct {
	// KeepAliveInterval paces the transport-level comment pulse. It is
	// independent of the registry heartbeat.
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
}

type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type AuthConfig struct {
	// JWTSecret verifies bearer tokens on incoming streams. Empty disables
	// identity resolution: every connection is anonymous.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from the given file (or the default search paths
// when path is empty) and the environment, applies defaults and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("registry.max_connections", 1000)
	v.SetDefault("registry.heartbeat_interval", "30s")
	v.SetDefault("registry.client_timeout", "90s")
	v.SetDefault("registry.welcome_delay", "200ms")
	v.SetDefault("registry.write_timeout", "5s")

	v.SetDefault("stream.keep_alive_interval", "15s")

	v.SetDefault("rate_limit.limit", 10)
	v.SetDefault("rate_limit.window", "60s")

	// Registered with empty defaults so AutomaticEnv can bind them.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("log.file_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Registry.MaxConnections <= 0 {
		return fmt.Errorf("registry.max_connections must be positive (got %d)", c.Registry.MaxConnections)
	}
	if c.Registry.HeartbeatInterval <= 0 {
		return fmt.Errorf("registry.heartbeat_interval must be positive")
	}
	if c.Registry.ClientTimeout <= c.Registry.HeartbeatInterval {
		return fmt.Errorf("registry.client_timeout must exceed registry.heartbeat_interval")
	}
	if c.Stream.KeepAliveInterval <= 0 {
		return fmt.Errorf("stream.keep_alive_interval must be positive")
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.limit and rate_limit.window must be positive")
	}
	return nil
}

// LoggerConfig maps the log section onto the logger package's config.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.NewDefaultConfig()
	lc.Level = logger.ParseLevel(c.Log.Level)
	lc.Format = c.Log.Format
	lc.Output = c.Log.Output
	lc.FilePath = c.Log.FilePath
	lc.MaxSize = c.Log.MaxSize
	lc.MaxBackups = c.Log.MaxBackups
	lc.MaxAge = c.Log.MaxAge
	lc.Compress = c.Log.Compress
	return lc
}
