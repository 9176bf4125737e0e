// Package config handles library and global configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/pmem/config.yml.
// Every key can be overridden by a PMEM_* environment variable.
type GlobalConfig struct {
	LibraryPath    string        `yaml:"library_path,omitempty" envconfig:"LIBRARY"`
	S2APIKey       string        `yaml:"s2_api_key,omitempty" envconfig:"S2_API_KEY"`
	ContactEmail   string        `yaml:"contact_email,omitempty" envconfig:"CONTACT_EMAIL"`
	LogLevel       string        `yaml:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format,omitempty" envconfig:"LOG_FORMAT"`
	MergeThreshold *int          `yaml:"merge_threshold,omitempty" envconfig:"MERGE_THRESHOLD"`
	Pacing         time.Duration `yaml:"pacing,omitempty" envconfig:"PACING"`
	ProviderOrder  []string      `yaml:"provider_order,omitempty" envconfig:"PROVIDERS"`
	Timeout        time.Duration `yaml:"timeout,omitempty" envconfig:"TIMEOUT"`
	Viewer         string        `yaml:"viewer,omitempty" envconfig:"VIEWER"` // Command used by 'pmem open'
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pmem"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PMEM"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pmem/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. A missing file is not an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	var cfg GlobalConfig
	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if cfg.LibraryPath != "" {
		cfg.LibraryPath = ExpandPath(cfg.LibraryPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetLibraryPath returns the configured default library path.
func GetLibraryPath() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.LibraryPath
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// HelpfulConfigMessage returns a helpful message when no library is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No papermem library found.

Run 'pmem init' to create one here, or create %s to set a default library:
  mkdir -p %s
  echo 'library_path: /path/to/your/library' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
