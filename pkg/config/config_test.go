package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
	Workers int           `yaml:"workers"`
}

func (s *sample) Validate() error {
	if s.Workers < 1 {
		return errors.New("workers must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "bookmarks")
	path := writeFile(t, "name: ${SAMPLE_NAME}\ntimeout: 3s\n")

	cfg := sample{Workers: 10}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "bookmarks" || cfg.Timeout != 3*time.Second || cfg.Workers != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "workers: 2\nwokers: 3\n")
	cfg := sample{}
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "wokers") {
		t.Errorf("err = %v, want unknown field error", err)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, "workers: 0\n")
	cfg := sample{}
	if err := Load(path, &cfg); err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "")
	cfg := sample{Workers: 4}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers = %d", cfg.Workers)
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Workers: 1}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if err != nil || loaded {
		t.Errorf("missing file: loaded=%v err=%v", loaded, err)
	}

	path := writeFile(t, "workers: 7\n")
	loaded, err = LoadOptional(path, &cfg)
	if err != nil || !loaded || cfg.Workers != 7 {
		t.Errorf("existing file: loaded=%v err=%v cfg=%+v", loaded, err, cfg)
	}
}
