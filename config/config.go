package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const minJWTSecretLength = 32

type Config struct {
	App          AppConfig
	Log          LogConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Subscription SubscriptionConfig
	Directory    DirectoryConfig
}

type AppConfig struct {
	Port               string
	Env                string
	CORSAllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type SubscriptionConfig struct {
	// RequestTTL bounds how long a request may stay unanswered; zero disables expiry.
	RequestTTL    time.Duration
	SweepInterval time.Duration
}

type DirectoryConfig struct {
	DefaultLimit  int
	MaxLimit      int
	StatsCacheTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DIRECTORY_DEFAULT_LIMIT", 10)
	v.SetDefault("DIRECTORY_MAX_LIMIT", 100)
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	return load(viper.New(), ".env")
}

func load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)
	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Port:               v.GetString("APP_PORT"),
			Env:                v.GetString("APP_ENV"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  durationOr(v, "JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOr(v, "JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Subscription: SubscriptionConfig{
			RequestTTL:    durationOr(v, "SUBSCRIPTION_REQUEST_TTL", 30*24*time.Hour),
			SweepInterval: durationOr(v, "SUBSCRIPTION_SWEEP_INTERVAL", time.Hour),
		},
		Directory: DirectoryConfig{
			DefaultLimit:  v.GetInt("DIRECTORY_DEFAULT_LIMIT"),
			MaxLimit:      v.GetInt("DIRECTORY_MAX_LIMIT"),
			StatsCacheTTL: durationOr(v, "STATS_CACHE_TTL", 5*time.Minute),
		},
	}

	return config, nil
}

// Validate rejects settings the server cannot safely run with.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Directory.DefaultLimit < 1 || c.Directory.MaxLimit < c.Directory.DefaultLimit {
		return fmt.Errorf("invalid directory limits: default=%d max=%d", c.Directory.DefaultLimit, c.Directory.MaxLimit)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
