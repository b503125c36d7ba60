// Package config loads server settings from YAML files and VISHWA_*
// environment variables and turns them into a router configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/middleware"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Logger    LoggerConfig    `yaml:"logger" env:"LOGGER"`
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
	CORS      CORSConfig      `yaml:"cors" env:"CORS"`
	Metrics   MetricsConfig   `yaml:"metrics" env:"METRICS"`
}

// ServerConfig holds listener and request pipeline settings.
type ServerConfig struct {
	Address         string        `yaml:"address" env:"ADDRESS"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxBodySize     int64         `yaml:"max_body_size" env:"MAX_BODY_SIZE"`
	BodyReadTimeout time.Duration `yaml:"body_read_timeout" env:"BODY_READ_TIMEOUT"`
	ResponseTimeout time.Duration `yaml:"response_timeout" env:"RESPONSE_TIMEOUT"`
	StaticDir       string        `yaml:"static_dir" env:"STATIC_DIR"`
	Debug           bool          `yaml:"debug" env:"DEBUG"`
}

// LoggerConfig selects the zap logger built by NewLogger.
type LoggerConfig struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Encoding    string `yaml:"encoding" env:"ENCODING"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

// RateLimitConfig enables per-client rate limiting.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Limit    int           `yaml:"limit" env:"LIMIT"`
	Window   time.Duration `yaml:"window" env:"WINDOW"`
	Strategy string        `yaml:"strategy" env:"STRATEGY"`
}

// CORSConfig enables the CORS interceptor.
type CORSConfig struct {
	Enabled bool     `yaml:"enabled" env:"ENABLED"`
	Origins []string `yaml:"origins" env:"ORIGINS"`
	Methods []string `yaml:"methods" env:"METHODS"`
	Headers []string `yaml:"headers" env:"HEADERS"`
}

// MetricsConfig enables Prometheus metrics and their exposition route.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Path      string `yaml:"path" env:"PATH"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     1 << 20,
			BodyReadTimeout: 10 * time.Second,
			ResponseTimeout: router.DefaultResponseTimeout,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "json",
		},
		RateLimit: RateLimitConfig{
			Limit:    100,
			Window:   time.Minute,
			Strategy: middleware.StrategyIP,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
			Methods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			Headers: []string{"Content-Type", "Authorization"},
		},
		Metrics: MetricsConfig{
			Path:      "/metrics",
			Namespace: "vishwaexpo",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("server max_body_size must not be negative, got %d", c.Server.MaxBodySize)
	}
	switch c.Logger.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("logger encoding must be json or console, got %q", c.Logger.Encoding)
	}
	if _, err := zapcore.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger level: %w", err)
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
			return errors.New("rate_limit limit and window must be positive")
		}
		switch c.RateLimit.Strategy {
		case middleware.StrategyIP, middleware.StrategySession:
		default:
			return fmt.Errorf("rate_limit strategy must be ip or session, got %q", c.RateLimit.Strategy)
		}
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("metrics path must begin with /, got %q", c.Metrics.Path)
	}
	return nil
}

// NewLogger builds the zap logger described by c.
func (c LoggerConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	zc.Encoding = c.Encoding
	return zc.Build()
}

// RouterConfig converts c into the router configuration. Interceptors for
// the enabled features are included in their fixed order: trace, client IP,
// logging, CORS, rate limit.
func (c *Config) RouterConfig(logger *zap.Logger) router.RouterConfig {
	interceptors := []middleware.Interceptor{
		middleware.Trace(false),
		middleware.ClientIPResolver(nil),
		middleware.Logging(logger),
	}
	if c.CORS.Enabled {
		interceptors = append(interceptors, middleware.CORS(middleware.CORSConfig{
			Origins: c.CORS.Origins,
			Methods: c.CORS.Methods,
			Headers: c.CORS.Headers,
		}))
	}
	if c.RateLimit.Enabled {
		interceptors = append(interceptors, middleware.RateLimit(&middleware.RateLimitConfig{
			BucketName: "global",
			Limit:      c.RateLimit.Limit,
			Window:     c.RateLimit.Window,
			Strategy:   c.RateLimit.Strategy,
		}, nil, logger))
	}

	return router.RouterConfig{
		Logger:          logger,
		Debug:           c.Server.Debug,
		MaxBodySize:     c.Server.MaxBodySize,
		BodyReadTimeout: c.Server.BodyReadTimeout,
		ResponseTimeout: c.Server.ResponseTimeout,
		Middlewares:     interceptors,
	}
}
