// Package config assembles the runtime configuration from defaults, an
// optional YAML file, an optional .env file and the environment, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string         `yaml:"port"`
	LogLevel  string         `yaml:"log_level"`
	DB        DBConfig       `yaml:"db"`
	Tariffs   TariffConfig   `yaml:"tariffs"`
	ReportDir string         `yaml:"report_dir"`
	TokenTTL  string         `yaml:"token_ttl"`
	Snapshot  SnapshotConfig `yaml:"snapshot"`
	Alerts    AlertConfig    `yaml:"alerts"`
	Mail      MailConfig     `yaml:"mail"`
}

type DBConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// TariffConfig overrides the built-in state tariff table.
type TariffConfig struct {
	// JSON is a list of {"state": ..., "rate_per_kwh": ...} objects.
	JSON string `yaml:"json"`
	// PDF is a tariff sheet to parse at startup.
	PDF string `yaml:"pdf"`
}

// SnapshotConfig drives the background job that appends every account's
// current total to its history.
type SnapshotConfig struct {
	// Schedule is a cron expression or a number of seconds. Empty disables
	// the job.
	Schedule string `yaml:"schedule"`
	State    string `yaml:"state"`
}

type AlertConfig struct {
	WebhookURL  string `yaml:"webhook_url"`
	WebhookType string `yaml:"webhook_type"`
	MinFailures int    `yaml:"min_failures"`
}

type MailConfig struct {
	Provider    string `yaml:"provider"` // "smtp" or "sendgrid"
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Encryption  string `yaml:"encryption"` // "none", "ssl", "tls"
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
}

// Enabled reports whether enough is configured to send mail.
func (m MailConfig) Enabled() bool {
	return m.Provider != "" && m.FromAddress != ""
}

var drivers = []string{"memory", "file", "sqlite", "postgres"}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:      "8000",
		LogLevel:  "info",
		DB:        DBConfig{Driver: "file", DSN: "user_data.json"},
		ReportDir: ".",
		TokenTTL:  "30d",
		Alerts:    AlertConfig{MinFailures: 1},
		Mail:      MailConfig{FromName: "EcoEnergy"},
	}
}

// FromEnv builds a Config from environment variables, with sane defaults.
func FromEnv() Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// Load reads the YAML file at path (skipped when empty or missing) over
// the defaults and then applies the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
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

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.DB.Driver, "ECOENERGY_DB_DRIVER")
	setString(&c.DB.DSN, "ECOENERGY_DB_DSN")
	setBool(&c.DB.AutoMigrate, "ECOENERGY_AUTO_MIGRATE")
	setString(&c.Tariffs.JSON, "ECOENERGY_TARIFFS_JSON")
	setString(&c.Tariffs.PDF, "ECOENERGY_TARIFFS_PDF")
	setString(&c.ReportDir, "ECOENERGY_REPORT_DIR")
	setString(&c.TokenTTL, "ECOENERGY_TOKEN_TTL")
	setString(&c.Snapshot.Schedule, "ECOENERGY_SNAPSHOT_SCHEDULE")
	setString(&c.Snapshot.State, "ECOENERGY_SNAPSHOT_STATE")
	setString(&c.Alerts.WebhookURL, "ALERT_WEBHOOK_URL")
	setString(&c.Alerts.WebhookType, "ALERT_WEBHOOK_TYPE")
	setInt(&c.Alerts.MinFailures, "ALERT_MIN_FAILURES")
	setString(&c.Mail.Provider, "ECOENERGY_MAIL_PROVIDER")
	setString(&c.Mail.Host, "ECOENERGY_MAIL_HOST")
	setInt(&c.Mail.Port, "ECOENERGY_MAIL_PORT")
	setString(&c.Mail.Username, "ECOENERGY_MAIL_USERNAME")
	setString(&c.Mail.Password, "ECOENERGY_MAIL_PASSWORD")
	setString(&c.Mail.Encryption, "ECOENERGY_MAIL_ENCRYPTION")
	setString(&c.Mail.APIKey, "ECOENERGY_MAIL_API_KEY")
	setString(&c.Mail.FromAddress, "ECOENERGY_MAIL_FROM")
	setString(&c.Mail.FromName, "ECOENERGY_MAIL_FROM_NAME")
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if !slices.Contains(drivers, c.DB.Driver) {
		return fmt.Errorf("unsupported db driver %q (want one of %s)", c.DB.Driver, strings.Join(drivers, ", "))
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	switch c.Mail.Provider {
	case "", "smtp", "sendgrid":
	default:
		return fmt.Errorf("unsupported mail provider %q", c.Mail.Provider)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string { return ":" + c.Port }

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
