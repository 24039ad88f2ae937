package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer           string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL          string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience         string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey       string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	GeminiAPIKey         string        `mapstructure:"GEMINI_API_KEY"`
	GeminiBaseURL        string        `mapstructure:"GEMINI_BASE_URL"`
	GeminiSummaryModel   string        `mapstructure:"GEMINI_SUMMARY_MODEL"`
	GeminiChatModel      string        `mapstructure:"GEMINI_CHAT_MODEL"`
	GeminiTimeout        time.Duration `mapstructure:"GEMINI_TIMEOUT"`
	MinTranscriptChars   int           `mapstructure:"MIN_TRANSCRIPT_CHARS"`
	RecoveryDurationDays int           `mapstructure:"RECOVERY_DURATION_DAYS"`
	RemindersEnabled     bool          `mapstructure:"REMINDERS_ENABLED"`
	ReminderInterval     time.Duration `mapstructure:"REMINDER_INTERVAL"`
	SendGridAPIKey       string        `mapstructure:"SENDGRID_API_KEY"`
	SendGridBaseURL      string        `mapstructure:"SENDGRID_BASE_URL"`
	MailFrom             string        `mapstructure:"MAIL_FROM"`
	MailFromName         string        `mapstructure:"MAIL_FROM_NAME"`
}

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
	"CORS_ORIGINS",
	"GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_SUMMARY_MODEL", "GEMINI_CHAT_MODEL", "GEMINI_TIMEOUT",
	"MIN_TRANSCRIPT_CHARS", "RECOVERY_DURATION_DAYS",
	"REMINDERS_ENABLED", "REMINDER_INTERVAL",
	"SENDGRID_API_KEY", "SENDGRID_BASE_URL", "MAIL_FROM", "MAIL_FROM_NAME",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_SUMMARY_MODEL", "gemini-flash-latest")
	v.SetDefault("GEMINI_CHAT_MODEL", "gemini-flash-lite-latest")
	v.SetDefault("GEMINI_TIMEOUT", "60s")
	v.SetDefault("MIN_TRANSCRIPT_CHARS", 20)
	v.SetDefault("RECOVERY_DURATION_DAYS", 7)
	v.SetDefault("REMINDERS_ENABLED", true)
	v.SetDefault("REMINDER_INTERVAL", "60s")
	v.SetDefault("SENDGRID_BASE_URL", "https://api.sendgrid.com")
	v.SetDefault("MAIL_FROM_NAME", "Cortex")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ModelEnabled reports whether a model API key is configured. Without one,
// summaries degrade and chat falls back to canned replies.
func (c *Config) ModelEnabled() bool {
	return c.GeminiAPIKey != ""
}

// MailEnabled reports whether reminder emails can be delivered.
func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.MailFrom != ""
}

// Validate checks that the configuration is safe to run. Outside development
// some token verification source must be configured: either the hosted auth
// provider's issuer/JWKS or its shared HS256 secret.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthJWKSURL == "" && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_ISSUER, AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when ENV=%q; "+
				"refusing to start without token verification", c.Env)
	}
	if c.MinTranscriptChars < 0 {
		return fmt.Errorf("MIN_TRANSCRIPT_CHARS must be >= 0, got %d", c.MinTranscriptChars)
	}
	if c.RecoveryDurationDays <= 0 {
		return fmt.Errorf("RECOVERY_DURATION_DAYS must be positive, got %d", c.RecoveryDurationDays)
	}
	if c.RemindersEnabled && c.ReminderInterval < time.Second {
		return fmt.Errorf("REMINDER_INTERVAL must be at least 1s, got %s", c.ReminderInterval)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
