// Package config loads and validates the herbario configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Traits  TraitsConfig  `yaml:"traits"`
	Data    DataConfig    `yaml:"data"`
	Report  ReportConfig  `yaml:"report"`
	Archive ArchiveConfig `yaml:"archive"`
	Retry   RetryConfig   `yaml:"retry"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// APIConfig points at the Herbario Digital public API.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	PageStart int    `yaml:"page_start,omitempty"`
}

// TraitsConfig describes where the Rasgos-CL reference dataset lives.
type TraitsConfig struct {
	RepoURL string `yaml:"repo_url"`
	Branch  string `yaml:"branch,omitempty"`
	CSVPath string `yaml:"csv_path"`
}

// DataConfig controls where collected data is written.
type DataConfig struct {
	Directory string `yaml:"directory"`
}

// ReportConfig controls where report artifacts are written.
type ReportConfig struct {
	Directory string `yaml:"directory"`
}

// ArchiveConfig names the output archive and optionally overrides the
// built-in manifest.
type ArchiveConfig struct {
	Name     string   `yaml:"name"`
	Manifest []string `yaml:"manifest,omitempty"` // empty -> built-in default manifest
}

// RetryConfig holds backoff settings for transient fetch failures.
// Delays are duration strings ("1s", "500ms").
type RetryConfig struct {
	Mode         RetryBackoffMode `yaml:"mode,omitempty"`
	InitialDelay string           `yaml:"initial,omitempty"`
	MaxDelay     string           `yaml:"max,omitempty"`
	MaxRetries   int              `yaml:"max_retries,omitempty"`
}

// DaemonConfig configures continuous mode.
type DaemonConfig struct {
	RefreshInterval string `yaml:"refresh_interval,omitempty"` // duration string
	Listen          string `yaml:"listen,omitempty"`           // metrics/admin listen address
	NATSURL         string `yaml:"nats_url,omitempty"`         // empty -> event publishing disabled
	Subject         string `yaml:"subject,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; absence is not an error.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.herbariodigital.cl"
	}
	if c.API.PageStart <= 0 {
		c.API.PageStart = 1
	}
	if c.Traits.RepoURL == "" {
		c.Traits.RepoURL = "https://github.com/dylancraven/Rasgos-CL.git"
	}
	if c.Traits.Branch == "" {
		c.Traits.Branch = "main"
	}
	if c.Traits.CSVPath == "" {
		c.Traits.CSVPath = "Data/RasgosCL_spp_names_clean.csv"
	}
	if c.Data.Directory == "" {
		c.Data.Directory = "./data"
	}
	if c.Report.Directory == "" {
		c.Report.Directory = "./report"
	}
	if c.Archive.Name == "" {
		c.Archive.Name = "herbario.zip"
	}
	if c.Retry.Mode == "" {
		c.Retry.Mode = RetryBackoffLinear
	}
	if c.Retry.InitialDelay == "" {
		c.Retry.InitialDelay = "1s"
	}
	if c.Retry.MaxDelay == "" {
		c.Retry.MaxDelay = "30s"
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 2
	}
	if c.Daemon.RefreshInterval == "" {
		c.Daemon.RefreshInterval = "24h"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":9180"
	}
	if c.Daemon.Subject == "" {
		c.Daemon.Subject = "herbario.events"
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		API: APIConfig{
			BaseURL:   "https://api.herbariodigital.cl",
			PageStart: 1,
		},
		Traits: TraitsConfig{
			RepoURL: "https://github.com/dylancraven/Rasgos-CL.git",
			Branch:  "main",
			CSVPath: "Data/RasgosCL_spp_names_clean.csv",
		},
		Data:   DataConfig{Directory: "./data"},
		Report: ReportConfig{Directory: "./report"},
		Archive: ArchiveConfig{
			Name: "herbario.zip",
		},
		Retry: RetryConfig{
			Mode:         RetryBackoffLinear,
			InitialDelay: "1s",
			MaxDelay:     "30s",
			MaxRetries:   2,
		},
		Daemon: DaemonConfig{
			RefreshInterval: "24h",
			Listen:          ":9180",
			Subject:         "herbario.events",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// loadEnvFiles loads environment variables from .env files if present.
// Already-set variables win over file values.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}
}
