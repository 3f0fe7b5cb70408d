// Package config provides application configuration loaded from an optional
// .env file and environment variables, with defaults and validation. It
// centralizes the bot credentials, polling cadence, logging, the operator
// HTTP surface, the cycle journal, and observability settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/homework-bot/internal/domain"
)

// Credentials holds the three secrets the bot cannot run without.
type Credentials struct {
	PracticumToken string `env:"PRACTICUM_TOKEN"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`
}

// Check confirms that every credential is set. On failure it logs at
// critical level and returns a config-kind error naming the missing
// variables; callers must abort startup.
func (c Credentials) Check() error {
	var missing []string
	if c.PracticumToken == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) == 0 {
		return nil
	}

	// zerolog has no "critical"; FatalLevel via WithLevel logs without exiting.
	log.WithLevel(zerolog.FatalLevel).
		Strs("missing", missing).
		Msg("required environment variables are not set")

	return domain.E(domain.KindConfig, "config.Credentials.Check",
		fmt.Errorf("%w: %s", domain.ErrMissingCredentials, strings.Join(missing, ", ")))
}

// String masks the secrets so a Credentials value is safe to log.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{PracticumToken:%s TelegramToken:%s TelegramChatID:%s}",
		mask(c.PracticumToken), mask(c.TelegramToken), c.TelegramChatID)
}

// CORSConfig defines Cross-Origin Resource Sharing settings for the operator API.
type CORSConfig struct {
	AllowedOriginsCSV string `env:"CORS_ALLOWED_ORIGINS"`
	AllowedOrigins    []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS" envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"homework-bot"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"`
}

// Config holds all configuration values for the application.
type Config struct {
	Credentials Credentials

	// Polling
	PracticumEndpoint string        `env:"PRACTICUM_ENDPOINT" envDefault:"https://practicum.yandex.ru/api/user_api/homework_statuses/"`
	TelegramEndpoint  string        `env:"TELEGRAM_API_ENDPOINT" envDefault:"https://api.telegram.org/bot%s/%s"`
	RetryPeriod       time.Duration `env:"RETRY_PERIOD" envDefault:"600s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"debug"` // debug|info|warn|error|fatal|panic
	LogFile   string `env:"LOG_FILE" envDefault:"main.log"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	// Operator HTTP server
	HTTPEnabled       bool          `env:"HTTP_ENABLED" envDefault:"true"`
	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	APIBasePath       string        `env:"API_BASE_PATH" envDefault:"/api/v1"`

	// Cycle journal
	JournalEnabled bool   `env:"JOURNAL_ENABLED" envDefault:"true"`
	DBPath         string `env:"DB_PATH" envDefault:"homework_bot.db"`

	// Rate limiting (operator API)
	RateRPS   float64 `env:"RATE_RPS" envDefault:"5"`
	RateBurst int     `env:"RATE_BURST" envDefault:"10"`

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad(dotenv ...string) Config {
	cfg, err := Load(dotenv...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the given .env files (".env" when none are given; missing files
// are skipped), parses environment variables into Config, applies
// normalization, and validates the result. Variables already present in the
// environment win over .env entries.
//
// Credentials are not checked here; call Credentials.Check once logging is
// configured so the failure reaches the log sink.
func Load(dotenv ...string) (Config, error) {
	if err := LoadDotEnv(dotenv...); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	// --- normalization ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.CORS.AllowedOrigins = splitCSV(cfg.CORS.AllowedOriginsCSV)

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if err := validateEndpoint(cfg.PracticumEndpoint); err != nil {
		return cfg, fmt.Errorf("PRACTICUM_ENDPOINT %w", err)
	}
	if strings.Count(cfg.TelegramEndpoint, "%s") != 2 {
		return cfg, errors.New("TELEGRAM_API_ENDPOINT must contain two %s verbs (token, method)")
	}
	if cfg.RetryPeriod <= 0 {
		return cfg, errors.New("RETRY_PERIOD must be a positive duration")
	}
	if cfg.RequestTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.HTTPEnabled && strings.TrimSpace(cfg.HTTPAddr) == "" {
		return cfg, errors.New("HTTP_ADDR must not be empty when HTTP_ENABLED")
	}
	if cfg.JournalEnabled && strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty when JOURNAL_ENABLED")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// LoadDotEnv loads key=value pairs from the given files into the process
// environment without overriding variables that are already set. Files that
// do not exist are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ---- helpers ----

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an absolute http(s) URL")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func mask(s string) string {
	if s == "" {
		return `""`
	}
	return "***"
}
