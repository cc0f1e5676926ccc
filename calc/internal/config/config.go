package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/strokestats/strokestats/calc/internal/export"
	"github.com/strokestats/strokestats/calc/internal/publish"
	"github.com/strokestats/strokestats/calc/internal/registry"
	"github.com/strokestats/strokestats/calc/internal/stats"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultLogLevel     = "info"
	DefaultPatientLimit = stats.DefaultPatientLimit
	DefaultSourceType   = "csv"
	DefaultSourcePath   = "data/registry.csv"
	DefaultTable        = "patients"
	DefaultFormat       = string(export.FormatCSV)
	DefaultTimeout      = publish.DefaultTimeout
	DefaultScope        = "all"
)

const dateLayout = "2006-01-02"

// Config is the top-level configuration of the calculator.
type Config struct {
	Calc CalcConfig `yaml:"calc"`
}

// CalcConfig holds every calculator setting.
type CalcConfig struct {
	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// PatientLimit is the minimum patient count for an award above
	// STROKEREADY.
	PatientLimit int `yaml:"patient_limit"`

	// CountryCode selects the indicator variant: "" default, "CZ" Czech.
	CountryCode string `yaml:"country_code"`

	// IncludeCountry adds the country pseudo-site.
	IncludeCountry bool `yaml:"include_country"`

	// Comparison groups patients by country instead of by site.
	Comparison bool `yaml:"comparison"`

	Filter  FilterConfig  `yaml:"filter"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Publish PublishConfig `yaml:"publish"`

	// Schedule is a five field cron spec. Empty runs once.
	Schedule string `yaml:"schedule"`

	// Watch re-runs when the config file or a csv source changes.
	Watch bool `yaml:"watch"`
}

// FilterConfig narrows the extract before computation.
type FilterConfig struct {
	Country string `yaml:"country"`

	// From and To are YYYY-MM-DD, inclusive. Both or neither.
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// DateColumn is DISCHARGE_DATE | HOSPITAL_DATE | either.
	DateColumn string `yaml:"date_column"`
}

// SourceConfig locates the registry extract.
type SourceConfig struct {
	// Type is one of: csv | sqlite | postgres.
	Type string `yaml:"type"`

	// Path is the csv file or the sqlite database file.
	Path string `yaml:"path"`

	// Table is the SQL table to read.
	Table string `yaml:"table"`

	// DSNEnv is the name of the environment variable holding the
	// connection string.
	DSNEnv string `yaml:"dsn_env"`
}

// DSN returns the connection string resolved from the environment.
func (s SourceConfig) DSN() string {
	if s.DSNEnv == "" {
		return ""
	}
	return os.Getenv(s.DSNEnv)
}

// OutputConfig selects where the table is written.
type OutputConfig struct {
	// Format is one of: csv | json | prom.
	Format string `yaml:"format"`

	// Path is the output file. Empty writes to stdout.
	Path string `yaml:"path"`
}

// PublishConfig addresses the report server. An empty Endpoint disables
// publishing.
type PublishConfig struct {
	Endpoint string `yaml:"endpoint"`

	// Scope names the report on the server. Defaults to the lower-cased
	// country code, or "all".
	Scope string `yaml:"scope"`

	// Header carries the API key. Defaults to X-API-Key.
	Header string `yaml:"header"`

	// APIKeyEnv is the name of the environment variable holding the key.
	APIKeyEnv string `yaml:"api_key_env"`

	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Key returns the API key resolved from the environment.
func (p PublishConfig) Key() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// Enabled reports whether reports are published.
func (p PublishConfig) Enabled() bool { return p.Endpoint != "" }

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Calc: CalcConfig{
			LogLevel:     DefaultLogLevel,
			PatientLimit: DefaultPatientLimit,
			Filter:       FilterConfig{DateColumn: registry.ColDischargeDate},
			Source: SourceConfig{
				Type:  DefaultSourceType,
				Path:  DefaultSourcePath,
				Table: DefaultTable,
			},
			Output:  OutputConfig{Format: DefaultFormat},
			Publish: PublishConfig{Timeout: DefaultTimeout},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	c := &cfg.Calc
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("calc.log_level: unknown level %q", c.LogLevel)
	}
	if c.PatientLimit <= 0 {
		return fmt.Errorf("calc.patient_limit must be positive")
	}
	if c.IncludeCountry && c.Comparison {
		return fmt.Errorf("calc.include_country and calc.comparison are exclusive")
	}

	switch c.Source.Type {
	case "csv":
		if c.Source.Path == "" {
			return fmt.Errorf("calc.source.path is required for csv")
		}
	case "sqlite":
		if c.Source.Path == "" && c.Source.DSNEnv == "" {
			return fmt.Errorf("calc.source: sqlite needs path or dsn_env")
		}
	case "postgres":
		if c.Source.DSNEnv == "" {
			return fmt.Errorf("calc.source.dsn_env is required for postgres")
		}
	default:
		return fmt.Errorf("calc.source.type: unknown type %q", c.Source.Type)
	}
	if c.Source.Type != "csv" && c.Source.Table == "" {
		return fmt.Errorf("calc.source.table is required for %s", c.Source.Type)
	}

	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("calc.output.format: %w", err)
	}

	switch c.Filter.DateColumn {
	case registry.ColDischargeDate, registry.ColHospitalDate, registry.DateEither:
	default:
		return fmt.Errorf("calc.filter.date_column: unknown column %q", c.Filter.DateColumn)
	}
	if _, err := c.Filter.filter(); err != nil {
		return fmt.Errorf("calc.filter: %w", err)
	}

	if c.Publish.Timeout <= 0 {
		return fmt.Errorf("calc.publish.timeout must be positive")
	}
	if c.Publish.MaxAttempts < 0 {
		return fmt.Errorf("calc.publish.max_attempts must not be negative")
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("calc.schedule: %w", err)
		}
	}
	return nil
}

// --- translation -------------------------------------------------------------

// Options returns the calculation options.
func (c CalcConfig) Options() stats.Options {
	return stats.Options{
		PatientLimit:   c.PatientLimit,
		CountryCode:    strings.ToUpper(strings.TrimSpace(c.CountryCode)),
		IncludeCountry: c.IncludeCountry,
		Comparison:     c.Comparison,
	}
}

// RegistrySource returns the registry source parameters with the DSN
// resolved.
func (c CalcConfig) RegistrySource() registry.SourceConfig {
	return registry.SourceConfig{
		Type:  c.Source.Type,
		Path:  c.Source.Path,
		Table: c.Source.Table,
		DSN:   c.Source.DSN(),
	}
}

// RowFilter returns the row filter. Load has already validated the dates.
func (c CalcConfig) RowFilter() registry.Filter {
	f, _ := c.Filter.filter()
	return f
}

func (f FilterConfig) filter() (registry.Filter, error) {
	out := registry.Filter{
		Country:    strings.ToUpper(strings.TrimSpace(f.Country)),
		DateColumn: f.DateColumn,
	}
	if (f.From == "") != (f.To == "") {
		return out, fmt.Errorf("from and to must be set together")
	}
	if f.From == "" {
		return out, nil
	}
	from, err := time.Parse(dateLayout, f.From)
	if err != nil {
		return out, fmt.Errorf("from: %w", err)
	}
	to, err := time.Parse(dateLayout, f.To)
	if err != nil {
		return out, fmt.Errorf("to: %w", err)
	}
	if to.Before(from) {
		return out, fmt.Errorf("to %s is before from %s", f.To, f.From)
	}
	out.From, out.To = from, to
	return out, nil
}

// Format returns the output format. Load has already validated it.
func (c CalcConfig) Format() export.Format {
	f, _ := export.ParseFormat(c.Output.Format)
	return f
}

// Scope returns the report scope name.
func (c CalcConfig) Scope() string {
	if c.Publish.Scope != "" {
		return c.Publish.Scope
	}
	if cc := strings.TrimSpace(c.CountryCode); cc != "" {
		return strings.ToLower(cc)
	}
	return DefaultScope
}

// PublishOptions returns the publisher parameters with the key resolved.
func (c CalcConfig) PublishOptions() publish.Config {
	return publish.Config{
		Endpoint:    c.Publish.Endpoint,
		Header:      c.Publish.Header,
		Key:         c.Publish.Key(),
		Timeout:     c.Publish.Timeout,
		MaxAttempts: c.Publish.MaxAttempts,
	}
}
