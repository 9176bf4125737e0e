// Package main provides the pmem CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/config"
	"github.com/matsen/papermem/internal/engine"
	"github.com/matsen/papermem/internal/identity"
	"github.com/matsen/papermem/internal/logging"
	"github.com/matsen/papermem/internal/resolver"
	"github.com/matsen/papermem/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	// libraryFlag overrides library discovery
	libraryFlag string

	// logLevelFlag overrides the configured log level
	logLevelFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra's own errors (bad flags, missing args) are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pmem",
	Short: "Remember the papers you read and find their published versions",
	Long: `pmem keeps a local memory of the research papers you open.

Core features:
  - Recognizes paper URLs from arXiv, OpenReview, NeurIPS, PMLR, ACL, CVF,
    bioRxiv, publishers and DOIs, and maps every form of a URL to one paper
  - Deduplicates observations of the same paper by URL and by title
  - Resolves preprint citations in a .bib file to their published versions
    via DBLP, Semantic Scholar, Google Scholar, CrossRef and Unpaywall

Data is stored in git-versionable JSONL with ephemeral SQLite for search.
All commands output JSON by default for scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env so PMEM_* overrides can live next to the library.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVarP(&libraryFlag, "library", "L", "", "Library directory (default: search upward from the current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error, off)")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a library.
// Checks --library, then the global library_path, then the working directory.
func getStartingDirectory() (string, int) {
	if libraryFlag != "" {
		return config.ExpandPath(libraryFlag), 0
	}
	if root := config.GetLibraryPath(); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds the library, exits on error.
// Returns the library root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	root, err := config.FindRepository(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return root
}

// mustLoadSettings layers the global and library configuration, exits on error.
func mustLoadSettings(root string) config.Settings {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	lib, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading library config: %v", err)
	}
	settings, err := config.Resolve(root, global, lib)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if logLevelFlag != "" {
		settings.LogLevel = logLevelFlag
	}
	return settings
}

// newLogger builds the stderr logger for a command.
func newLogger(settings config.Settings) zerolog.Logger {
	logger := logging.New(logging.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Output: os.Stderr,
	})
	return logging.WithLibrary(logger, settings.Root)
}

// mustOpenEngine opens the library with its configured merge threshold.
// Extra options (such as a resolver) are applied last.
func mustOpenEngine(settings config.Settings, logger zerolog.Logger, opts ...engine.Option) *engine.Engine {
	base := []engine.Option{
		engine.WithLogger(logger),
		engine.WithStoreOptions(identity.WithMergeThreshold(settings.MergeThreshold)),
	}
	eng, err := engine.Open(settings.Root, append(base, opts...)...)
	if err != nil {
		exitWithError(ExitDataError, "loading library: %v", err)
	}
	return eng
}

// mustNewResolver builds the provider chain from settings, exits on error.
func mustNewResolver(settings config.Settings, logger zerolog.Logger, metrics *resolver.Metrics) *resolver.Resolver {
	chain, err := engine.BuildChain(engine.ChainConfig{
		Keys:         settings.ProviderOrder,
		S2APIKey:     settings.S2APIKey,
		ContactEmail: settings.ContactEmail,
		Timeout:      settings.Timeout,
	}, logger)
	if err != nil {
		exitWithError(ExitConfigError, "building provider chain: %v", err)
	}

	opts := []resolver.Option{
		resolver.WithPacing(settings.Pacing),
		resolver.WithLogger(logger),
	}
	if metrics != nil {
		opts = append(opts, resolver.WithMetrics(metrics))
	}
	return resolver.New(chain, opts...)
}

// mustOpenDatabase opens the SQLite search cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustSave persists the library and refreshes the search cache.
func mustSave(eng *engine.Engine) {
	if err := eng.Save(); err != nil {
		exitWithError(ExitError, "saving library: %v", err)
	}

	db := mustOpenDatabase(eng.Root())
	defer db.Close()
	if _, err := eng.RebuildIndex(db); err != nil {
		exitWithError(ExitError, "updating search cache: %v", err)
	}
}

// exitForEngineError maps engine errors to exit codes.
func exitForEngineError(err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		exitWithError(ExitNotFound, "%v", err)
	case errors.Is(err, engine.ErrNotAPaper):
		exitWithError(ExitNotAPaper, "%v", err)
	default:
		exitWithError(ExitError, "%v", err)
	}
}
