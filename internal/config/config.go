// Package config loads SmartPark settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	ZonesFile string
	LogLevel  slog.Level

	SimulationInterval time.Duration
	SimulationSeed     uint64

	Analysis AnalysisConfig
	Auth     AuthConfig
	Notify   NotifyConfig

	DatabaseURL    string
	NATSURL        string
	NATSSubject    string
	ReportSchedule string
	CORSOrigins    []string
}

type AnalysisConfig struct {
	// APIKey is the credential for the text-generation service. Empty
	// disables the feature without failing startup.
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

type AuthConfig struct {
	// JWTSecret empty leaves mutation routes open.
	JWTSecret            string
	OperatorUsername     string
	OperatorPasswordHash string
	TokenTTL             time.Duration
}

type NotifyConfig struct {
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	EmailTo           string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	SMSTo            string
}

func DefaultConfig() *Config {
	return &Config{
		Port:               "8080",
		LogLevel:           slog.LevelInfo,
		SimulationInterval: 1500 * time.Millisecond,
		Analysis: AnalysisConfig{
			BaseURL:  "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:    "gemini-2.5-flash",
			Language: "zh-TW",
			Timeout:  30 * time.Second,
		},
		Auth: AuthConfig{
			OperatorUsername: "operator",
			TokenTTL:         8 * time.Hour,
		},
		Notify: NotifyConfig{
			SendGridFromName: "SmartPark",
		},
		NATSSubject: "smartpark.lot.updated",
	}
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, layering values over the defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	c := DefaultConfig()

	setString(getenv, "PORT", &c.Port)
	setString(getenv, "ZONES_FILE", &c.ZonesFile)
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	if err := setDuration(getenv, "SIMULATION_INTERVAL", &c.SimulationInterval); err != nil {
		return nil, err
	}
	if v := getenv("SIMULATION_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SIMULATION_SEED: %w", err)
		}
		c.SimulationSeed = seed
	}

	// API_KEY is the older name; ANALYSIS_API_KEY wins when both are set.
	setString(getenv, "API_KEY", &c.Analysis.APIKey)
	setString(getenv, "ANALYSIS_API_KEY", &c.Analysis.APIKey)
	setString(getenv, "ANALYSIS_BASE_URL", &c.Analysis.BaseURL)
	setString(getenv, "ANALYSIS_MODEL", &c.Analysis.Model)
	setString(getenv, "ANALYSIS_LANGUAGE", &c.Analysis.Language)
	if err := setDuration(getenv, "ANALYSIS_TIMEOUT", &c.Analysis.Timeout); err != nil {
		return nil, err
	}

	setString(getenv, "JWT_SECRET", &c.Auth.JWTSecret)
	setString(getenv, "OPERATOR_USERNAME", &c.Auth.OperatorUsername)
	setString(getenv, "OPERATOR_PASSWORD_HASH", &c.Auth.OperatorPasswordHash)
	if err := setDuration(getenv, "TOKEN_TTL", &c.Auth.TokenTTL); err != nil {
		return nil, err
	}

	setString(getenv, "SENDGRID_API_KEY", &c.Notify.SendGridAPIKey)
	setString(getenv, "SENDGRID_FROM_EMAIL", &c.Notify.SendGridFromEmail)
	setString(getenv, "SENDGRID_FROM_NAME", &c.Notify.SendGridFromName)
	setString(getenv, "REPORT_EMAIL_TO", &c.Notify.EmailTo)
	setString(getenv, "TWILIO_ACCOUNT_SID", &c.Notify.TwilioAccountSID)
	setString(getenv, "TWILIO_AUTH_TOKEN", &c.Notify.TwilioAuthToken)
	setString(getenv, "TWILIO_FROM_NUMBER", &c.Notify.TwilioFromNumber)
	setString(getenv, "REPORT_SMS_TO", &c.Notify.SMSTo)

	setString(getenv, "DATABASE_URL", &c.DatabaseURL)
	setString(getenv, "NATS_URL", &c.NATSURL)
	setString(getenv, "NATS_SUBJECT", &c.NATSSubject)
	setString(getenv, "REPORT_SCHEDULE", &c.ReportSchedule)

	if v := getenv("CORS_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.SimulationInterval <= 0 {
		return fmt.Errorf("SIMULATION_INTERVAL must be positive")
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Auth.JWTSecret != "" && c.Auth.OperatorPasswordHash == "" {
		return fmt.Errorf("OPERATOR_PASSWORD_HASH is required when JWT_SECRET is set")
	}
	return nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(getenv func(string) string, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
