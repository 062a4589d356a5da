package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/akeil/syfix/pkg/api"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := loadSettings(flags{})
	if err != nil {
		t.Fatal(err)
	}

	if s.baseURL != api.DefaultBaseURL {
		t.Errorf("unexpected base URL %q", s.baseURL)
	}
	if s.notebook != defaultNotebook {
		t.Errorf("unexpected notebook %q", s.notebook)
	}
	if s.concurrency != api.DefaultConcurrency {
		t.Errorf("unexpected concurrency %d", s.concurrency)
	}
	if s.timeout != api.DefaultTimeout {
		t.Errorf("unexpected timeout %v", s.timeout)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	path := writeConfig(t, `
base_url: http://siyuan.local:6806
token: abc
data_dir: /srv/siyuan/data
notebook: imported
concurrency: 16
timeout: 5s
rate: 50
`)
	t.Setenv("SYFIX_TOKEN", "from-env")

	s, err := loadSettings(flags{configFile: path, concurrency: 4})
	if err != nil {
		t.Fatal(err)
	}

	if s.baseURL != "http://siyuan.local:6806" {
		t.Errorf("unexpected base URL %q", s.baseURL)
	}
	if s.token != "from-env" {
		t.Errorf("environment should override the file, got %q", s.token)
	}
	if s.notebook != "imported" {
		t.Errorf("unexpected notebook %q", s.notebook)
	}
	if s.concurrency != 4 {
		t.Errorf("flag should override the file, got %d", s.concurrency)
	}
	if s.timeout != 5*time.Second {
		t.Errorf("unexpected timeout %v", s.timeout)
	}
	if s.rate != 50 {
		t.Errorf("unexpected rate %v", s.rate)
	}

	cfg := s.apiConfig()
	if cfg.Token != "from-env" || cfg.Concurrency != 4 || cfg.RequestsPerSecond != 50 {
		t.Errorf("unexpected api config %+v", cfg)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := loadSettings(flags{configFile: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Errorf("expected an error for an explicit config file that does not exist")
	}
}

func TestLoadSettingsExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()

	s, err := loadSettings(flags{
		configFile: writeConfig(t, "notebook: notion\n"),
		dataDir:    "~/SiYuan/data",
	})
	if err != nil {
		t.Fatal(err)
	}

	expected := filepath.Join(home, "SiYuan", "data")
	if s.dataDir != expected {
		t.Errorf("unexpected data dir: %q != %q", s.dataDir, expected)
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "syfix.yaml")
	err := os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}
