package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment        string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DBDSN              string        `mapstructure:"DB_DSN"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	TelegramToken      string        `mapstructure:"TELEGRAM_TOKEN"`
	AdminTelegramIDs   string        `mapstructure:"ADMIN_TELEGRAM_IDS"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	RegistrationKeyTTL time.Duration `mapstructure:"REGISTRATION_KEY_TTL"`
	BcryptCost         int           `mapstructure:"BCRYPT_COST"`
	SearchPageLimit    int           `mapstructure:"SEARCH_PAGE_LIMIT"`
	SearchThrottle     time.Duration `mapstructure:"SEARCH_THROTTLE"`
	MigrationsAuto     bool          `mapstructure:"MIGRATIONS_AUTO"`
	SendGridAPIKey     string        `mapstructure:"SENDGRID_API_KEY"`
	MailFrom           string        `mapstructure:"MAIL_FROM"`
	TracingEnabled     bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string        `mapstructure:"OTLP_ENDPOINT"`
}

var defaults = map[string]any{
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"DB_DSN":               "",
	"HTTP_ADDR":            ":8080",
	"TELEGRAM_TOKEN":       "",
	"ADMIN_TELEGRAM_IDS":   "",
	"SESSION_TTL":          "24h",
	"REGISTRATION_KEY_TTL": "720h",
	"BCRYPT_COST":          10,
	"SEARCH_PAGE_LIMIT":    5,
	"SEARCH_THROTTLE":      "1s",
	"MIGRATIONS_AUTO":      true,
	"SENDGRID_API_KEY":     "",
	"MAIL_FROM":            "noreply@wherewego.local",
	"TRACING_ENABLED":      false,
	"TRACING_EXPORTER":     "stdout",
	"OTLP_ENDPOINT":        "localhost:4317",
}

// Load читает .env (если есть), затем переменные окружения поверх значений по умолчанию
func Load(envFile string) (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Printf("Loaded configuration from %s\n", envFile)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return errors.New("DB_DSN is required but not set")
	}
	if c.SearchPageLimit <= 0 {
		return fmt.Errorf("SEARCH_PAGE_LIMIT must be positive, got %d", c.SearchPageLimit)
	}
	if _, err := c.AdminIDs(); err != nil {
		return err
	}
	switch c.TracingExporter {
	case "stdout", "otlp", "none":
	default:
		return fmt.Errorf("unsupported TRACING_EXPORTER %q", c.TracingExporter)
	}
	return nil
}

// AdminIDs Telegram ID администраторов бота из списка через запятую
func (c *Config) AdminIDs() ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(c.AdminTelegramIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS: invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
