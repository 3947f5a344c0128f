package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/tabtidy/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestProbeConfig_Validation(t *testing.T) {
	cases := map[string]func(*Config){
		"zero workers":       func(c *Config) { c.Probe.Workers = 0 },
		"zero timeout":       func(c *Config) { c.Probe.Timeout = 0 },
		"negative rate":      func(c *Config) { c.Probe.PerHostRate = -1 },
		"zero redirects":     func(c *Config) { c.Probe.MaxRedirects = 0 },
		"negative redirects": func(c *Config) { c.Probe.MaxRedirects = -2 },
		"zero passes":        func(c *Config) { c.Compact.Passes = 0 },
		"bad report path":    func(c *Config) { c.Report.Path = "report.txt" },
		"bad log format":     func(c *Config) { c.App.LogFormat = "xml" },
		"port out of range":  func(c *Config) { c.App.HTTP.Port = 70000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("TABTIDY_TEST_TOKEN", "s3cret")
	yaml := `app:
  log_level: debug
  log_format: json
  http:
    port: 9090
probe:
  timeout: 2s
  workers: 25
  per_host_rate: 1.5
safety:
  blocked_hosts: [example.internal]
report:
  path: out/report.xlsx
auth:
  mode: token
  token: ${TABTIDY_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Probe.Timeout != 2*time.Second || cfg.Probe.Workers != 25 || cfg.Probe.PerHostRate != 1.5 {
		t.Errorf("probe = %+v", cfg.Probe)
	}
	if cfg.Probe.MaxRedirects != 10 {
		t.Errorf("unset max_redirects = %d, want default 10", cfg.Probe.MaxRedirects)
	}
	if cfg.Auth.Token != "s3cret" || !cfg.Auth.AuthEnabled() {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if len(cfg.Safety.BlockedHosts) != 1 {
		t.Errorf("safety = %+v", cfg.Safety)
	}
}
