package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Every field maps to an env var.
type Config struct {
	// Server
	Port    int    `mapstructure:"PORT"`
	Env     string `mapstructure:"APP_ENV"` // development | production
	AppName string `mapstructure:"APP_NAME"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBTimezone  string `mapstructure:"DB_TIMEZONE"`

	// Optional infrastructure, disabled when empty
	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"` // console | json

	// Labels
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL"`
	LabelBrandName    string `mapstructure:"LABEL_BRAND_NAME"`
	LabelBrandTagline string `mapstructure:"LABEL_BRAND_TAGLINE"`
}

var defaults = map[string]any{
	"PORT":                 3000,
	"APP_ENV":              "development",
	"APP_NAME":             "Etiquetas & Estoque",
	"DATABASE_URL":         "",
	"DB_HOST":              "localhost",
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "",
	"DB_NAME":              "etiquetas",
	"DB_PORT":              "5432",
	"DB_TIMEZONE":          "America/Sao_Paulo",
	"REDIS_URL":            "",
	"RABBITMQ_URL":         "",
	"JWT_SECRET":           "",
	"JWT_EXPIRATION_HOURS": 24,
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "console",
	"PUBLIC_BASE_URL":      "http://localhost:3000",
	"LABEL_BRAND_NAME":     "CENTRAL TRUCK",
	"LABEL_BRAND_TAGLINE":  "SISTEMA FINANCEIRO",
}

// Load reads .env (if present) into the environment, then environment variables
// over the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required in production")
	}
	if c.JWTExpirationHours <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION_HOURS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DSN is DATABASE_URL when set, otherwise a key/value DSN from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimezone,
	)
}
