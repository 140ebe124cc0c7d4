package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LIFECYCLE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("LIFECYCLE_DB", "")
	t.Setenv("GITHUB_INTEGRATION_ENABLED", "")

	cfg := Load()
	if cfg.DatabasePath != "lifecycle.db" {
		t.Errorf("DatabasePath = %s, want lifecycle.db", cfg.DatabasePath)
	}
	if cfg.GitHubEnabled {
		t.Error("GitHubEnabled should default to false")
	}
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lifecycle-config.json")
	if err := os.WriteFile(file, []byte(`{"database_path": "from-file.db", "github_repo": "acme/file"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFECYCLE_CONFIG_FILE", file)
	t.Setenv("LIFECYCLE_DB", "from-env.db")
	t.Setenv("GITHUB_REPO", "")

	cfg := Load()
	if cfg.DatabasePath != "from-env.db" {
		t.Errorf("DatabasePath = %s, want from-env.db", cfg.DatabasePath)
	}
	if cfg.GitHubRepo != "acme/file" {
		t.Errorf("GitHubRepo = %s, want acme/file", cfg.GitHubRepo)
	}
}

func TestLoad_MalformedFileIgnored(t *testing.T) {
	file := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(file, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFECYCLE_CONFIG_FILE", file)
	t.Setenv("LIFECYCLE_DB", "")

	cfg := Load()
	if cfg.DatabasePath != "lifecycle.db" {
		t.Errorf("DatabasePath = %s, want default after bad file", cfg.DatabasePath)
	}
}

func TestBoolEnvParsing(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		present bool
	}{
		{"true", true, true},
		{"1", true, true},
		{"YES", true, true},
		{"on", true, true},
		{"false", false, true},
		{"0", false, true},
		{"no", false, true},
		{"off", false, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.raw)
		got, ok := boolEnv("TEST_BOOL")
		if got != tt.want || ok != tt.present {
			t.Errorf("boolEnv(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.present)
		}
	}
}

func TestValidateGitHub(t *testing.T) {
	cfg := &Config{GitHubEnabled: false}
	if errs := cfg.ValidateGitHub(); len(errs) != 0 {
		t.Errorf("disabled integration should validate clean, got %v", errs)
	}

	cfg = &Config{GitHubEnabled: true}
	if errs := cfg.ValidateGitHub(); len(errs) != 2 {
		t.Errorf("expected token and repo errors, got %v", errs)
	}

	cfg = &Config{GitHubEnabled: true, GitHubToken: "tok", GitHubRepo: "acme/widgets"}
	if errs := cfg.ValidateGitHub(); len(errs) != 0 {
		t.Errorf("complete config should validate clean, got %v", errs)
	}
}
