package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WARBLER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Port != 5000 || cfg.Database.Driver != "sqlite" || cfg.Session.Backend != "cookie" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.Session.Name != "warbler_session" {
		t.Errorf("Unexpected session name %q", cfg.Session.Name)
	}
	if cfg.JWTExpiry() != 120*time.Minute {
		t.Errorf("Unexpected JWT expiry %v", cfg.JWTExpiry())
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "warbler.toml")
	err := os.WriteFile(path, []byte(`
[app]
port = 8080
secret_key = "from-file"

[database]
driver = "postgres"
dsn = "postgres://warbler@localhost/warbler"

[log]
level = "debug"
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("WARBLER_CONFIG", path)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Port != 9090 {
		t.Errorf("Expected env to override port, got %d", cfg.App.Port)
	}
	if cfg.App.SecretKey != "from-file" || cfg.Database.Driver != "postgres" || cfg.Log.Level != "debug" {
		t.Errorf("Expected file values, got %+v", cfg)
	}
	if cfg.Session.Backend != "redis" || cfg.Redis.DB != 3 {
		t.Errorf("Expected env session settings, got %+v %+v", cfg.Session, cfg.Redis)
	}
	if cfg.HTTPAddr() != "0.0.0.0:9090" {
		t.Errorf("Unexpected addr %s", cfg.HTTPAddr())
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("WARBLER_CONFIG", filepath.Join(dir, "missing.toml"))
	// registered so the value loaded from .env is cleared after the test
	t.Setenv("LOG_FORMAT", "")
	os.Unsetenv("LOG_FORMAT")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_FORMAT=json\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected .env value, got %q", cfg.Log.Format)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty secret":    func(c *Config) { c.App.SecretKey = "" },
		"unknown driver":  func(c *Config) { c.Database.Driver = "mysql" },
		"unknown backend": func(c *Config) { c.Session.Backend = "memcache" },
		"bcrypt too low":  func(c *Config) { c.Auth.BcryptCost = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}
