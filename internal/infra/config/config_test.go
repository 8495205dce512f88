package config

import (
	"testing"
	"time"
)

func TestParseFileSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100MB", 100 << 20},
		{"512KB", 512 << 10},
		{"1GB", 1 << 30},
		{"2048", 2048},
		{" 10 MB ", 10 << 20},
		{"100mb", 100 << 20},
	}
	for _, tc := range cases {
		got, err := ParseFileSize(tc.in)
		if err != nil {
			t.Errorf("ParseFileSize(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFileSize(%q) = %d, quería %d", tc.in, got, tc.want)
		}
	}
}

func TestParseFileSizeInvalid(t *testing.T) {
	for _, bad := range []string{"", "muchos", "MB", "1.5GB"} {
		if _, err := ParseFileSize(bad); err == nil {
			t.Errorf("ParseFileSize(%q) tenía que fallar", bad)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("MATRIX_HOMESERVER_URL", "https://env.example.org")
	t.Setenv("MATRIX_ADMIN_USERNAME", "root")

	cfg := Config{DatabaseURL: "postgres://yaml"}
	cfg.Matrix.HomeserverURL = "https://yaml.example.org"
	applyEnv(&cfg)

	if cfg.DatabaseURL != "postgres://env" {
		t.Errorf("DatabaseURL = %q, la env pisa al yaml", cfg.DatabaseURL)
	}
	if cfg.Matrix.HomeserverURL != "https://env.example.org" {
		t.Errorf("HomeserverURL = %q", cfg.Matrix.HomeserverURL)
	}
	if cfg.Admin.Username != "root" {
		t.Errorf("Admin.Username = %q", cfg.Admin.Username)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.Matrix.Username = "@bot:example.org"
	applyDefaults(&cfg)

	if cfg.Matrix.ServerName != "example.org" {
		t.Errorf("ServerName = %q, se deduce del username", cfg.Matrix.ServerName)
	}
	if cfg.Matrix.DeviceName != "matrix-archiver" {
		t.Errorf("DeviceName = %q", cfg.Matrix.DeviceName)
	}
	if cfg.Processing.RefreshInterval() != 5*time.Minute {
		t.Errorf("RefreshInterval = %v", cfg.Processing.RefreshInterval())
	}
	if cfg.Processing.SyncTimeout() != 30*time.Second {
		t.Errorf("SyncTimeout = %v", cfg.Processing.SyncTimeout())
	}
	if n, err := cfg.Processing.MaxFileSizeBytes(); err != nil || n != 100<<20 {
		t.Errorf("MaxFileSizeBytes = %d, %v", n, err)
	}
}

func TestApplyDefaultsKeepsExplicit(t *testing.T) {
	cfg := Config{}
	cfg.Matrix.ServerName = "otro.org"
	cfg.Matrix.Username = "@bot:example.org"
	cfg.Processing.RefreshIntervalMinutes = 10
	applyDefaults(&cfg)

	if cfg.Matrix.ServerName != "otro.org" {
		t.Errorf("ServerName = %q, lo explícito no se pisa", cfg.Matrix.ServerName)
	}
	if cfg.Processing.RefreshInterval() != 10*time.Minute {
		t.Errorf("RefreshInterval = %v", cfg.Processing.RefreshInterval())
	}
}
