package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Environment      string
	LogLevel         string
	TelegramToken    string
	StoreBackend     string
	BookingsFile     string
	DBDSN            string
	DucklingURL      string
	Timezone         string
	SMTP             SMTPConfig
	ReminderSchedule string
	PolicyFile       string
	Policy           model.Policy
	HealthAddr       string // пусто: HTTP-проверки выключены

	// DotEnvLoaded найден ли .env, пишется в лог после создания логгера
	DotEnvLoaded bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled настроена ли отправка почты
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Load читает .env (если есть), переменные окружения и YAML-политику
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл, отсутствие файла не ошибка
	loaded := godotenv.Load(".env") == nil

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.DotEnvLoaded = loaded
	return cfg, nil
}

// FromEnv собирает конфиг из произвольного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:      getenv("ENV"),
		LogLevel:         getenv("LOG_LEVEL"),
		TelegramToken:    getenv("TELEGRAM_TOKEN"),
		StoreBackend:     strings.ToLower(getenv("STORE_BACKEND")),
		BookingsFile:     getenv("BOOKINGS_FILE"),
		DBDSN:            getenv("DB_DSN"),
		DucklingURL:      strings.TrimRight(getenv("DUCKLING_URL"), "/"),
		Timezone:         getenv("TZ_NAME"),
		ReminderSchedule: getenv("REMINDER_SCHEDULE"),
		PolicyFile:       getenv("POLICY_FILE"),
		HealthAddr:       getenv("HEALTH_ADDR"),
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST"),
			Username: getenv("SMTP_USER"),
			Password: getenv("SMTP_PASS"),
			From:     getenv("SMTP_FROM"),
		},
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendFile
	}
	if cfg.BookingsFile == "" {
		cfg.BookingsFile = "data/bookings.json"
	}
	if cfg.ReminderSchedule == "" {
		cfg.ReminderSchedule = "@every 1m"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}

	var errs []error

	cfg.SMTP.Port = 587
	if port := getenv("SMTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT must be a valid port, got %q", port))
		} else {
			cfg.SMTP.Port = p
		}
	}

	policy, err := LoadPolicy(cfg.PolicyFile)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Policy = policy

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadPolicy читает YAML поверх значений по умолчанию. Пустой путь даёт политику по умолчанию.
func LoadPolicy(path string) (model.Policy, error) {
	policy := model.DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("policy file %s: %w", path, err)
	}
	return policy, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendFile:
	case BackendPostgres:
		// Проверяем обязательные поля
		if c.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required when STORE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFile, BackendPostgres, c.StoreBackend))
	}

	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.ReminderSchedule); err != nil {
		errs = append(errs, fmt.Errorf("REMINDER_SCHEDULE %q: %w", c.ReminderSchedule, err))
	}

	if c.SMTP.Enabled() && c.SMTP.From == "" && c.SMTP.Username == "" {
		errs = append(errs, errors.New("SMTP_FROM or SMTP_USER is required when SMTP_HOST is set"))
	}

	return errors.Join(errs...)
}

// RequireTelegram токен нужен только боту, не CLI
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required but not set")
	}
	return nil
}

// LogFields безопасные для лога поля, без секретов
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Environment),
		zap.String("store_backend", c.StoreBackend),
		zap.String("bookings_file", c.BookingsFile),
		zap.Bool("duckling", c.DucklingURL != ""),
		zap.Bool("smtp", c.SMTP.Enabled()),
		zap.String("reminder_schedule", c.ReminderSchedule),
		zap.String("health_addr", c.HealthAddr),
		zap.Bool("dotenv", c.DotEnvLoaded),
		zap.Int("token_length", len(c.TelegramToken)),
	}
}
