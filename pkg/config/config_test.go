package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Name     string        `yaml:"name" env:"APP_NAME"`
	Port     int           `yaml:"port" env:"APP_PORT"`
	Debug    bool          `yaml:"debug" env:"APP_DEBUG"`
	Timeout  time.Duration `yaml:"timeout" env:"APP_TIMEOUT"`
	Origins  []string      `yaml:"origins" env:"APP_ORIGINS"`
	Database struct {
		DSN string `yaml:"dsn" env:"DATABASE_URL"`
	} `yaml:"database"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
name: test-app
port: 8080
debug: false
timeout: 15s
origins: [http://a.example, http://b.example]
database:
  dsn: data/test.db
`)

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "test-app" {
		t.Fatalf("expected 'test-app', got '%s'", cfg.Name)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected 8080, got %d", cfg.Port)
	}
	if cfg.Debug {
		t.Fatal("expected debug to be false")
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("expected 15s, got %s", cfg.Timeout)
	}
	if len(cfg.Origins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Origins)
	}
	if cfg.Database.DSN != "data/test.db" {
		t.Fatalf("unexpected dsn %q", cfg.Database.DSN)
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `
name: default
port: 3000
`)

	t.Setenv("APP_NAME", "from-env")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("APP_TIMEOUT", "250ms")
	t.Setenv("APP_ORIGINS", "http://x.example, ,http://y.example")
	t.Setenv("DATABASE_URL", "postgres://localhost/robonews")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "from-env" {
		t.Fatalf("expected 'from-env', got '%s'", cfg.Name)
	}
	if cfg.Port != 9090 {
		t.Fatalf("expected 9090, got %d", cfg.Port)
	}
	if !cfg.Debug {
		t.Fatal("expected debug to be true from env")
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", cfg.Timeout)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://y.example" {
		t.Fatalf("unexpected origins %v", cfg.Origins)
	}
	if cfg.Database.DSN != "postgres://localhost/robonews" {
		t.Fatalf("nested env override not applied: %q", cfg.Database.DSN)
	}
}

func TestEnvOverride_InvalidValue(t *testing.T) {
	t.Setenv("APP_TIMEOUT", "soon")

	var cfg testConfig
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestExpandEnvInFile(t *testing.T) {
	t.Setenv("SECRET_NAME", "expanded")
	path := writeConfig(t, "name: ${SECRET_NAME}\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "expanded" {
		t.Fatalf("expected expanded name, got %q", cfg.Name)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := testConfig{Name: "default"}
	if err := LoadOrDefault("/nonexistent/config.yaml", &cfg); err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Name != "default" {
		t.Fatalf("expected defaults to survive, got '%s'", cfg.Name)
	}
}

func TestApplyEnv_RejectsNonPointer(t *testing.T) {
	if err := ApplyEnv(testConfig{}); err == nil {
		t.Fatal("expected error for non-pointer")
	}
}
