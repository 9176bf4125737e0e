package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matsen/papermem/internal/identity"
	"github.com/matsen/papermem/internal/provider"
)

// Config represents library configuration stored in .papermem/config.json.
// Unset fields fall back to the global config and then to the defaults.
type Config struct {
	MergeThreshold *int     `json:"merge_threshold,omitempty"` // Title edit distance; negative disables merging
	ProviderOrder  []string `json:"provider_order,omitempty"`  // Provider keys in query order
	Pacing         string   `json:"pacing,omitempty"`          // Delay between provider calls, e.g. "1s"
}

const (
	PapermemDir = ".papermem"
	ConfigFile  = "config.json"
	PapersFile  = "papers.jsonl"
	FilesFile   = "files.jsonl"
	CacheDir    = "cache"
	DBFile      = "papers.db"
)

// Defaults applied when neither the library nor the global config sets a value.
const (
	DefaultPacing   = time.Second
	DefaultLogLevel = "info"
)

// ErrNotRepository indicates no .papermem directory was found.
var ErrNotRepository = errors.New("not in a papermem library (no .papermem directory found)")

// PapermemPath returns the path to the .papermem directory from a root path.
func PapermemPath(root string) string {
	return filepath.Join(root, PapermemDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, PapermemDir, ConfigFile)
}

// PapersPath returns the path to papers.jsonl from a root path.
func PapersPath(root string) string {
	return filepath.Join(root, PapermemDir, PapersFile)
}

// FilesPath returns the path to files.jsonl from a root path.
func FilesPath(root string) string {
	return filepath.Join(root, PapermemDir, FilesFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, PapermemDir, CacheDir)
}

// DBPath returns the path to papers.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, PapermemDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a papermem library.
func IsRepository(root string) bool {
	info, err := os.Stat(PapermemPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a papermem library.
// Returns the library root path or ErrNotRepository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Load reads configuration from the library at the given root.
// A library without config.json has an empty configuration.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes configuration to the library at the given root.
func (c *Config) Save(root string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks the provider keys and the pacing duration.
func (c *Config) Validate() error {
	if _, err := ValidateProviderOrder(c.ProviderOrder); err != nil {
		return err
	}
	if c.Pacing != "" {
		if _, err := ParsePacing(c.Pacing); err != nil {
			return err
		}
	}
	return nil
}

// ParsePacing parses a non-negative pacing duration.
func ParsePacing(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid pacing %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid pacing %q: must not be negative", s)
	}
	return d, nil
}

// ValidateProviderOrder canonicalizes provider keys and rejects unknown or
// repeated ones.
func ValidateProviderOrder(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		canonical, ok := provider.Canonical(key)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q (known: %s)", key, strings.Join(provider.Keys(), ", "))
		}
		if seen[canonical] {
			return nil, fmt.Errorf("provider %q listed twice", key)
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out, nil
}

// Settings is the effective configuration of one library.
type Settings struct {
	Root           string        `json:"root"`
	MergeThreshold int           `json:"merge_threshold"`
	ProviderOrder  []string      `json:"provider_order"`
	Pacing         time.Duration `json:"pacing"`
	Timeout        time.Duration `json:"timeout"`
	S2APIKey       string        `json:"-"`
	ContactEmail   string        `json:"contact_email,omitempty"`
	LogLevel       string        `json:"log_level"`
	LogFormat      string        `json:"log_format,omitempty"`
	Viewer         string        `json:"viewer,omitempty"`
}

// Resolve layers defaults, the global config and the library config, in
// that order. Either config may be nil.
func Resolve(root string, global *GlobalConfig, lib *Config) (Settings, error) {
	s := Settings{
		Root:           root,
		MergeThreshold: identity.DefaultMergeThreshold,
		ProviderOrder:  append([]string(nil), provider.DefaultOrder...),
		Pacing:         DefaultPacing,
		Timeout:        provider.DefaultTimeout,
		LogLevel:       DefaultLogLevel,
	}

	if global != nil {
		if global.MergeThreshold != nil {
			s.MergeThreshold = *global.MergeThreshold
		}
		if len(global.ProviderOrder) > 0 {
			order, err := ValidateProviderOrder(global.ProviderOrder)
			if err != nil {
				return Settings{}, fmt.Errorf("global config: %w", err)
			}
			s.ProviderOrder = order
		}
		if global.Pacing < 0 {
			return Settings{}, fmt.Errorf("global config: pacing must not be negative")
		}
		if global.Pacing > 0 {
			s.Pacing = global.Pacing
		}
		if global.Timeout > 0 {
			s.Timeout = global.Timeout
		}
		if global.LogLevel != "" {
			s.LogLevel = global.LogLevel
		}
		s.LogFormat = global.LogFormat
		s.S2APIKey = global.S2APIKey
		s.ContactEmail = global.ContactEmail
		s.Viewer = global.Viewer
	}

	if lib != nil {
		if lib.MergeThreshold != nil {
			s.MergeThreshold = *lib.MergeThreshold
		}
		if len(lib.ProviderOrder) > 0 {
			order, err := ValidateProviderOrder(lib.ProviderOrder)
			if err != nil {
				return Settings{}, fmt.Errorf("library config: %w", err)
			}
			s.ProviderOrder = order
		}
		if lib.Pacing != "" {
			d, err := ParsePacing(lib.Pacing)
			if err != nil {
				return Settings{}, fmt.Errorf("library config: %w", err)
			}
			s.Pacing = d
		}
	}

	return s, nil
}
