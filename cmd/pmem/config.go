package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show effective settings or set library configuration",
	Long: `Show the effective settings of the library, or set a library value.

Usage:
  pmem config                                  # Show effective settings
  pmem config merge-threshold 2                # Set a library value
  pmem config provider-order dblp,crossref
  pmem config pacing 500ms

Keys:
  merge-threshold  Title edit distance for merging observations (negative disables)
  provider-order   Comma-separated citation providers, in query order
  pacing           Delay between provider queries (e.g. 1s, 0s)

Credentials and logging are set in the global config file or with PMEM_*
environment variables.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runConfig,
}

// UpdateResponse is the JSON output after setting a value.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()

	if len(args) == 0 {
		settings := mustLoadSettings(root)
		if humanOutput {
			fmt.Print(formatSettingsHuman(settings))
		} else {
			outputJSON(settings)
		}
		return nil
	}
	if len(args) == 1 {
		exitWithError(ExitError, "missing value for %s", args[0])
	}

	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading library config: %v", err)
	}

	key := normalizeKey(args[0])
	if err := setConfigValue(cfg, key, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, args[1])
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  args[1],
		})
	}

	return nil
}

// setConfigValue parses and stores one library setting.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "merge-threshold":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid merge threshold %q: must be an integer", value)
		}
		cfg.MergeThreshold = &n
	case "provider-order":
		order, err := config.ValidateProviderOrder(splitList(value))
		if err != nil {
			return err
		}
		cfg.ProviderOrder = order
	case "pacing":
		if _, err := config.ParsePacing(value); err != nil {
			return err
		}
		cfg.Pacing = strings.TrimSpace(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// formatSettingsHuman renders effective settings, hiding credentials.
func formatSettingsHuman(s config.Settings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "library:         %s\n", s.Root)
	fmt.Fprintf(&sb, "merge-threshold: %d\n", s.MergeThreshold)
	fmt.Fprintf(&sb, "provider-order:  %s\n", strings.Join(s.ProviderOrder, ","))
	fmt.Fprintf(&sb, "pacing:          %s\n", s.Pacing)
	fmt.Fprintf(&sb, "timeout:         %s\n", s.Timeout)
	fmt.Fprintf(&sb, "log-level:       %s\n", s.LogLevel)
	if s.ContactEmail != "" {
		fmt.Fprintf(&sb, "contact-email:   %s\n", s.ContactEmail)
	}
	if s.S2APIKey != "" {
		fmt.Fprintf(&sb, "s2-api-key:      (set)\n")
	}
	if s.Viewer != "" {
		fmt.Fprintf(&sb, "viewer:          %s\n", s.Viewer)
	}
	return sb.String()
}

// normalizeKey converts key formats (merge-threshold, merge_threshold) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
