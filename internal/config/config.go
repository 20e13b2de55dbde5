// Package config loads service configuration from an optional YAML file
// with MR_* environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config is the central configuration for the service.
type Config struct {
	// Azure AD app registration (client credentials flow).
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Target drive in Microsoft Graph.
	DriveID    string `yaml:"drive_id"`
	FolderPath string `yaml:"folder_path"`
	SiteID     string `yaml:"site_id"`

	ListenAddr     string `yaml:"listen_addr"`
	RecentCapacity int    `yaml:"recent_capacity"`

	WeeklyLogPath      string `yaml:"weekly_log_path"`
	EnhancementLogPath string `yaml:"enhancement_log_path"`
	ToolsPath          string `yaml:"tools_path"`
	GitRepoPath        string `yaml:"git_repo_path"`
}

// Default returns the built-in defaults. Secrets have no default.
func Default() Config {
	return Config{
		FolderPath:         "MemoryRouter",
		ListenAddr:         ":8080",
		RecentCapacity:     200,
		WeeklyLogPath:      "weekly_tasks_log.csv",
		EnhancementLogPath: "enhancements_log.csv",
		ToolsPath:          ".memory_router/tools.json",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if it
// exists), then MR_* environment variables. An empty path skips the file.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		switch {
		case os.IsNotExist(err):
			// Config file is optional.
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString(&cfg.TenantID, "MR_TENANT_ID")
	setString(&cfg.ClientID, "MR_CLIENT_ID")
	setString(&cfg.ClientSecret, "MR_CLIENT_SECRET")
	setString(&cfg.DriveID, "MR_DRIVE_ID")
	setString(&cfg.FolderPath, "MR_FOLDER_PATH")
	setString(&cfg.SiteID, "MR_SITE_ID")
	setString(&cfg.ListenAddr, "MR_LISTEN_ADDR")
	setString(&cfg.WeeklyLogPath, "MR_WEEKLY_LOG_PATH")
	setString(&cfg.EnhancementLogPath, "MR_ENHANCEMENT_LOG_PATH")
	setString(&cfg.ToolsPath, "MR_TOOLS_PATH")
	setString(&cfg.GitRepoPath, "MR_GIT_REPO_PATH")

	if v, ok := os.LookupEnv("MR_RECENT_CAPACITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RecentCapacity = n
		}
	}
}

// ValidateGraph checks that everything the Graph client needs is present.
func (c Config) ValidateGraph() error {
	missing := func(name string) error {
		return fmt.Errorf("missing required config: %s", name)
	}
	if c.TenantID == "" {
		return missing("tenant_id (MR_TENANT_ID)")
	}
	if c.ClientID == "" {
		return missing("client_id (MR_CLIENT_ID)")
	}
	if c.ClientSecret == "" {
		return missing("client_secret (MR_CLIENT_SECRET)")
	}
	if c.DriveID == "" {
		return missing("drive_id (MR_DRIVE_ID)")
	}
	return nil
}
