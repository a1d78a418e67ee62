package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with defaults: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.OutputSize != 20 {
		t.Errorf("output size = %d, want 20", cfg.Engine.OutputSize)
	}
	if cfg.Engine.MinMatchScore != 60 {
		t.Errorf("min match score = %f, want 60", cfg.Engine.MinMatchScore)
	}
	if cfg.Catalog.SeedFetchDelay != 250*time.Millisecond {
		t.Errorf("seed fetch delay = %s, want 250ms", cfg.Catalog.SeedFetchDelay)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("addr = %s", cfg.Addr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TASTE_SERVER_PORT", "9000")
	t.Setenv("TASTE_LOGGING_LEVEL", "debug")
	t.Setenv("TASTE_CATALOG_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Catalog.APIKey != "secret" {
		t.Errorf("api key = %q", cfg.Catalog.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 should fail validation")
	}

	cfg = defaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log level should fail validation")
	}

	cfg = defaultConfig()
	cfg.Catalog.SeedFetchDelay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative seed fetch delay should fail validation")
	}
}
