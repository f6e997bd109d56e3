package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LogConfig controls logger construction.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL"        envDefault:"info"`
	Format     string `env:"LOG_FORMAT"       envDefault:"console"`
	Output     string `env:"LOG_OUTPUT"       envDefault:"stdout"`
	FilePath   string `env:"LOG_FILE"         envDefault:"logs/supplier-chat.log"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"  envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS"  envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"7"`
}

// TracingConfig controls the OTLP exporter. An empty endpoint disables tracing.
type TracingConfig struct {
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
}

// ClientConfig configures the chat client.
type ClientConfig struct {
	APIURL       string        `env:"SUPPLIER_API_URL,required,notEmpty"`
	WSURL        string        `env:"SUPPLIER_WS_URL,required,notEmpty"`
	SessionToken string        `env:"SUPPLIER_SESSION_TOKEN"`
	SessionFile  string        `env:"SUPPLIER_SESSION_FILE"`
	PingInterval time.Duration `env:"SUPPLIER_WS_PING_INTERVAL" envDefault:"30s"`
	MetricsAddr  string        `env:"SUPPLIER_METRICS_ADDR"`

	// Reconnect tuning; the defaults are the production values.
	ReconnectDelay       time.Duration `env:"SUPPLIER_WS_RECONNECT_DELAY" envDefault:"1s"`
	MaxReconnectAttempts int           `env:"SUPPLIER_WS_MAX_RECONNECTS"  envDefault:"6"`

	Log     LogConfig
	Tracing TracingConfig
}

// RelayConfig configures the development relay server.
type RelayConfig struct {
	Port         string        `env:"PORT"             envDefault:"8090"`
	JWTSecret    string        `env:"RELAY_JWT_SECRET" envDefault:"dev-secret"`
	TokenTTL     time.Duration `env:"RELAY_TOKEN_TTL"  envDefault:"24h"`
	DBDSN        string        `env:"DB_DSN"`
	RedisAddr    string        `env:"REDIS_ADDR"`
	RedisPass    string        `env:"REDIS_PASSWORD"`
	RedisDB      int           `env:"REDIS_DB"         envDefault:"0"`
	AMQPURL      string        `env:"AMQP_URL"`
	AMQPExchange string        `env:"AMQP_EXCHANGE"    envDefault:"chat.events"`
	Environment  string        `env:"APP_ENV"          envDefault:"dev"`
	Log          LogConfig
	Tracing      TracingConfig
}

// LoadClient reads the client configuration from the environment and an optional .env file.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that both endpoints are absolute URLs.
func (c *ClientConfig) Validate() error {
	if err := absoluteURL("SUPPLIER_API_URL", c.APIURL); err != nil {
		return err
	}
	return absoluteURL("SUPPLIER_WS_URL", c.WSURL)
}

// LoadRelay reads the relay configuration from the environment and an optional .env file.
func LoadRelay() (*RelayConfig, error) {
	_ = godotenv.Load()

	var cfg RelayConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("RELAY_JWT_SECRET must not be empty")
	}
	return &cfg, nil
}

func absoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: %q is not an absolute url", name, raw)
	}
	return nil
}
