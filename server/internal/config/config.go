package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule is one threshold over a site column of published reports.
type AlertRule struct {
	// Name identifies the rule and is part of the deduplication key.
	Name string `yaml:"name"`

	// Column is an indicator column name, or "award" / "award_old" for the
	// two classifications.
	Column string `yaml:"column"`

	// Condition is "<op> <value>": "< 80" for indicator columns, "< GOLD"
	// for award columns. Ops: < <= > >= == !=.
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info. Default warning.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultLogLevel       = "info"
	DefaultHeader         = "X-API-Key"
	DefaultMaxScopes      = 64
	DefaultStreamInterval = 30 * time.Second
)

// Config holds the server configuration parsed from the `server:` section
// of the config file. Other top-level keys are ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the API, metrics and WebSocket stream listen on.
	HTTPPort int `yaml:"http_port"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Auth configures how report publishers and API clients authenticate.
	Auth AuthConfig `yaml:"auth"`

	// Reports controls in-memory report retention.
	Reports ReportsConfig `yaml:"reports"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`

	// Stream configures the WebSocket report summary stream.
	Stream StreamConfig `yaml:"stream"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or DefaultHeader.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultHeader
}

// ReportsConfig controls in-memory report retention.
type ReportsConfig struct {
	// MaxScopes caps the number of scopes kept; the least recently updated
	// scope is dropped when a new one arrives past the cap.
	MaxScopes int `yaml:"max_scopes"`

	// TTL evicts a scope that received no report for this long. Zero keeps
	// reports until replaced.
	TTL time.Duration `yaml:"ttl"`
}

// StreamConfig configures the WebSocket stream.
type StreamConfig struct {
	// Interval between unsolicited summary broadcasts.
	Interval time.Duration `yaml:"interval"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			LogLevel: DefaultLogLevel,
			Reports: ReportsConfig{
				MaxScopes: DefaultMaxScopes,
			},
			Stream: StreamConfig{
				Interval: DefaultStreamInterval,
			},
		},
	}
}

// Ops accepted in a rule condition.
var Ops = []string{"<", "<=", ">", ">=", "==", "!="}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", s.LogLevel)
	}
	switch s.Auth.Mode {
	case "apikey":
		if s.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required when mode is apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Reports.MaxScopes <= 0 {
		return fmt.Errorf("server.reports.max_scopes must be positive")
	}
	if s.Reports.TTL < 0 {
		return fmt.Errorf("server.reports.ttl must not be negative")
	}
	if s.Stream.Interval <= 0 {
		return fmt.Errorf("server.stream.interval must be positive")
	}
	names := map[string]bool{}
	for i, r := range s.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("server.alerts.rules[%d]: name is required", i)
		}
		if names[r.Name] {
			return fmt.Errorf("server.alerts.rules[%d]: duplicate name %q", i, r.Name)
		}
		names[r.Name] = true
		if r.Column == "" {
			return fmt.Errorf("server.alerts.rules[%d] %q: column is required", i, r.Name)
		}
		if err := checkCondition(r.Condition); err != nil {
			return fmt.Errorf("server.alerts.rules[%d] %q: %w", i, r.Name, err)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("server.alerts.rules[%d] %q: severity %q unknown", i, r.Name, r.Severity)
		}
		if r.Cooldown < 0 {
			return fmt.Errorf("server.alerts.rules[%d] %q: cooldown must not be negative", i, r.Name)
		}
	}
	for i, w := range s.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("server.alerts.webhooks[%d]: type %q unknown: want slack|teams|http", i, w.Type)
		}
		if w.URLEnv == "" {
			return fmt.Errorf("server.alerts.webhooks[%d]: url_env is required", i)
		}
	}
	return nil
}

// checkCondition verifies the "<op> <value>" shape. The value is checked
// against the column when a rule is evaluated.
func checkCondition(cond string) error {
	parts := strings.Fields(cond)
	if len(parts) != 2 {
		return fmt.Errorf("condition %q: want \"<op> <value>\"", cond)
	}
	for _, op := range Ops {
		if parts[0] == op {
			return nil
		}
	}
	return fmt.Errorf("condition %q: unknown operator %q", cond, parts[0])
}
