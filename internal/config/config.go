// Package config loads server settings from the environment, with an
// optional JSON file overlay. Environment values win over file values.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the server reads.
type Config struct {
	DatabasePath  string `json:"database_path"`
	GitHubEnabled bool   `json:"github_integration_enabled"`
	GitHubToken   string `json:"github_token"`
	GitHubRepo    string `json:"github_repo"`
	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIModel   string `json:"openai_model"`
}

// Load reads .env (if present), then the overlay file named by
// LIFECYCLE_CONFIG_FILE (default lifecycle-config.json), then the
// environment. A missing or malformed overlay file is logged, not
// fatal.
func Load() *Config {
	// .env is a developer convenience; absence is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath: "lifecycle.db",
	}

	file := envOr("LIFECYCLE_CONFIG_FILE", "lifecycle-config.json")
	if data, err := os.ReadFile(file); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			log.Printf("WARNING: could not parse config file %s: %v", file, err)
		}
	}

	if v := os.Getenv("LIFECYCLE_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v, ok := boolEnv("GITHUB_INTEGRATION_ENABLED"); ok {
		cfg.GitHubEnabled = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHubToken = v
	}
	if v := os.Getenv("GITHUB_REPO"); v != "" {
		cfg.GitHubRepo = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	return cfg
}

// ValidateGitHub returns the problems that make the GitHub mirror
// unusable. An empty slice means the mirror can run; when the
// integration is disabled there is nothing to validate.
func (c *Config) ValidateGitHub() []string {
	if !c.GitHubEnabled {
		return nil
	}
	var errs []string
	if c.GitHubToken == "" {
		errs = append(errs, "GITHUB_TOKEN is required when GitHub integration is enabled")
	}
	if c.GitHubRepo == "" {
		errs = append(errs, "GITHUB_REPO is required when GitHub integration is enabled")
	}
	return errs
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolEnv(key string) (value, ok bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}
