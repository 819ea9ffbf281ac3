package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration required by the API process.
// Values come from the environment, optionally seeded from a .env file.
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Login    LoginConfig
	RabbitMQ RabbitMQConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Env  string `envconfig:"APP_ENV"`
	Port int    `envconfig:"APP_PORT" default:"8080"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME"`

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string `envconfig:"DB_SSLMODE"`

	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

// RedisConfig is optional outside production; without it login throttling is off.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET"`
	JWTIssuer string `envconfig:"JWT_ISSUER"`

	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TTL"`
	// RefreshTokenTTL of zero issues refresh tokens without exp.
	RefreshTokenTTL time.Duration `envconfig:"JWT_REFRESH_TTL"`
	Leeway          time.Duration `envconfig:"JWT_LEEWAY"`
}

type LoginConfig struct {
	MaxFailures   int           `envconfig:"LOGIN_MAX_FAILURES" default:"5"`
	FailureWindow time.Duration `envconfig:"LOGIN_FAILURE_WINDOW" default:"15m"`
}

type RabbitMQConfig struct {
	User     string `envconfig:"RABBITMQ_USER"`
	Password string `envconfig:"RABBITMQ_PASSWORD"`
	Address  string `envconfig:"RABBITMQ_ADDRESS"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	Exchange string `envconfig:"RABBITMQ_EXCHANGE" default:"weeklychef.users"`
	// ExchangeType is one of direct, fanout, topic.
	ExchangeType string `envconfig:"RABBITMQ_EXCHANGE_TYPE" default:"topic"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

func Load() (Config, error) {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills in environment dependent defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !slices.Contains(validEnvs, c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !slices.Contains(validSSLModes, c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.DB.MaxIdleConns > c.DB.MaxOpenConns && c.DB.MaxOpenConns > 0 {
		errs = append(errs, errors.New("DB_MAX_IDLE_CONNS must not exceed DB_MAX_OPEN_CONNS"))
	}

	if c.Redis.Host == "" && c.IsProduction() {
		errs = append(errs, errors.New("REDIS_HOST is required in production"))
	}
	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.Auth.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL < 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must not be negative"))
	} else if c.Auth.RefreshTokenTTL > 0 && c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}
	if c.Auth.Leeway < 0 {
		errs = append(errs, errors.New("JWT_LEEWAY must not be negative"))
	}

	if c.Login.MaxFailures <= 0 {
		c.Login.MaxFailures = 5
	}
	if c.Login.FailureWindow <= 0 {
		c.Login.FailureWindow = 15 * time.Minute
	}

	if c.RabbitMQ.Enabled() {
		if c.RabbitMQ.Exchange == "" {
			errs = append(errs, errors.New("RABBITMQ_EXCHANGE is required when RABBITMQ_ADDRESS is set"))
		}
		if c.RabbitMQ.ExchangeType == "" {
			c.RabbitMQ.ExchangeType = "topic"
		}
		if !slices.Contains(validExchangeTypes, c.RabbitMQ.ExchangeType) {
			errs = append(errs, fmt.Errorf("RABBITMQ_EXCHANGE_TYPE must be one of direct, fanout, topic, got %q", c.RabbitMQ.ExchangeType))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid environment:\n%w", err)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (r RabbitMQConfig) Enabled() bool {
	return r.Address != ""
}

// URI escapes the credentials; they may contain URL delimiters.
func (r RabbitMQConfig) URI() string {
	u := url.URL{
		Scheme: "amqp",
		Host:   net.JoinHostPort(r.Address, strconv.Itoa(r.Port)),
		Path:   "/",
	}
	if r.User != "" {
		u.User = url.UserPassword(r.User, r.Password)
	}
	return u.String()
}

var (
	validEnvs     = []string{"local", "dev", "staging", "production"}
	validSSLModes = []string{"disable", "require", "verify-ca", "verify-full"}

	validExchangeTypes = []string{"direct", "fanout", "topic"}
)
