package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tabtidy/internal/bookmark"
	"github.com/starford/tabtidy/internal/httpclient"
	"github.com/starford/tabtidy/internal/logging"
	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/report"
	"github.com/starford/tabtidy/internal/scheduler"
	"github.com/starford/tabtidy/internal/watcher"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Probe     ProbeConfig       `yaml:"probe"`
	Safety    SafetyConfig      `yaml:"safety"`
	Compact   CompactConfig     `yaml:"compact"`
	Report    ReportConfig      `yaml:"report"`
	Watch     WatchConfig       `yaml:"watch"`
	Documents DocumentsConfig   `yaml:"documents"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Probe.Validate(); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if err := c.Compact.Validate(); err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	LogDir    string     `yaml:"log_dir"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logging.FormatAuto, logging.FormatJSON, logging.FormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Logging returns the logger settings.
func (c *ApplicationConfig) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat, Dir: c.LogDir}
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ProbeConfig controls how links are checked.
type ProbeConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	Workers      int           `yaml:"workers"`
	MaxRedirects int           `yaml:"max_redirects"` // hops followed before failing, at least 1
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent"`
	PerHostRate  float64       `yaml:"per_host_rate"` // requests per second per host, 0 = unlimited
	PerHostBurst int           `yaml:"per_host_burst"`
}

// Validate validates the probe configuration.
func (c *ProbeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.MaxRedirects, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxBodyBytes, validation.Min(int64(0))),
		validation.Field(&c.PerHostRate, validation.Min(0.0)),
		validation.Field(&c.PerHostBurst, validation.Min(0)),
	)
}

// SafetyConfig extends the built-in denylists.
type SafetyConfig struct {
	BlockedHosts []string `yaml:"blocked_hosts"`
	BlockedWords []string `yaml:"blocked_words"`
}

// CompactConfig controls empty-folder compaction.
type CompactConfig struct {
	Passes int `yaml:"passes"`
}

// Validate validates the compaction configuration.
func (c *CompactConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Passes, validation.Required, validation.Min(1)),
	)
}

// ReportConfig controls run outputs besides the cleaned document.
type ReportConfig struct {
	Path        string `yaml:"path"`         // .json, .yaml or .xlsx; empty disables
	Limit       int    `yaml:"limit"`        // deletions listed in the console summary
	MetricsFile string `yaml:"metrics_file"` // Prometheus textfile; empty disables
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Limit, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.Path != "" {
		if _, err := report.FormatForPath(c.Path); err != nil {
			return fmt.Errorf("path: %w", err)
		}
	}
	return nil
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DocumentsConfig holds the directory served to API and MCP clients.
type DocumentsConfig struct {
	Root string `yaml:"root"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logging.FormatAuto,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Probe: ProbeConfig{
			Timeout:      probe.DefaultTimeout,
			Workers:      scheduler.DefaultWorkers,
			MaxRedirects: httpclient.DefaultMaxRedirects,
			MaxBodyBytes: probe.DefaultMaxBody,
			UserAgent:    probe.DefaultUserAgent,
			PerHostBurst: 1,
		},
		Compact: CompactConfig{
			Passes: bookmark.DefaultCompactPasses,
		},
		Report: ReportConfig{
			Limit: report.DefaultSummaryLimit,
		},
		Watch: WatchConfig{
			Debounce: watcher.DefaultDebounce,
		},
		Documents: DocumentsConfig{
			Root: ".",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
