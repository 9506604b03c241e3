// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis address for the token denylist (e.g. localhost:6379).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// JWTSecretKey is the base64-encoded HMAC signing key shared by all tokens.
	JWTSecretKey string `mapstructure:"JWT_SECRET_KEY"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// RefreshEncryptionKey is the hex-encoded 32-byte AES key for refresh tokens at rest.
	RefreshEncryptionKey string `mapstructure:"REFRESH_ENCRYPTION_KEY"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// MaxFailedAttempts is the consecutive sign-in failures before an account locks; default 5.
	MaxFailedAttempts int `mapstructure:"MAX_FAILED_ATTEMPTS"`
	// LockDuration is how long a locked account stays locked (e.g. "120m").
	LockDuration string `mapstructure:"LOCK_DURATION"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("REFRESH_ENCRYPTION_KEY", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MAX_FAILED_ATTEMPTS", 5)
	v.SetDefault("LOCK_DURATION", "120m")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.MaxFailedAttempts <= 0 {
		return nil, errors.New("config: MAX_FAILED_ATTEMPTS must be positive")
	}

	if cfg.JWTSecretKey != "" {
		if _, err := base64.StdEncoding.DecodeString(cfg.JWTSecretKey); err != nil {
			return nil, errors.New("config: JWT_SECRET_KEY must be base64")
		}
	}

	if cfg.RefreshEncryptionKey != "" {
		raw, err := hex.DecodeString(cfg.RefreshEncryptionKey)
		if err != nil || len(raw) != 32 {
			return nil, errors.New("config: REFRESH_ENCRYPTION_KEY must be 32 bytes, hex-encoded")
		}
	}

	return &cfg, nil
}

// SigningKey decodes JWT_SECRET_KEY from base64. Returns an error when the key is unset.
func (c *Config) SigningKey() ([]byte, error) {
	if c.JWTSecretKey == "" {
		return nil, errors.New("config: JWT_SECRET_KEY is not set")
	}
	return base64.StdEncoding.DecodeString(c.JWTSecretKey)
}

// EncryptionKey decodes REFRESH_ENCRYPTION_KEY from hex. Returns an error when the key is unset.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.RefreshEncryptionKey == "" {
		return nil, errors.New("config: REFRESH_ENCRYPTION_KEY is not set")
	}
	return hex.DecodeString(c.RefreshEncryptionKey)
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// LockoutDuration parses LockDuration as a time.Duration. Returns 120m if unset or invalid.
func (c *Config) LockoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LockDuration)
	if err != nil || d <= 0 {
		return 120 * time.Minute
	}
	return d
}
