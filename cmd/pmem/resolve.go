package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/bibtex"
	"github.com/matsen/papermem/internal/config"
	"github.com/matsen/papermem/internal/engine"
	"github.com/matsen/papermem/internal/resolver"
)

var (
	resolveOutput    string
	resolveInPlace   bool
	resolveProviders string
	resolveMetrics   string
	resolveQuiet     bool
)

func init() {
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Write the updated BibTeX to this file (default: stdout)")
	resolveCmd.Flags().BoolVarP(&resolveInPlace, "in-place", "i", false, "Overwrite the input file")
	resolveCmd.Flags().StringVar(&resolveProviders, "providers", "", "Comma-separated provider order (dblp, semanticscholar, scholar, crossref, unpaywall)")
	resolveCmd.Flags().StringVar(&resolveMetrics, "metrics", "", "Write provider metrics in Prometheus textfile format to this file")
	resolveCmd.Flags().BoolVarP(&resolveQuiet, "quiet", "q", false, "Do not report progress on stderr")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <refs.bib>",
	Short: "Replace preprint citations with their published versions",
	Long: `Look up the published version of every preprint citation in a BibTeX
file and replace the entry with the published one.

Providers are asked in order until one finds a match. Entries that are not
preprints, or that no provider matches, are kept unchanged.

Press Ctrl-C once to stop after the entry in progress and write what has
been resolved so far. Press it again to abort immediately.

Examples:
  pmem resolve refs.bib > refs.resolved.bib
  pmem resolve refs.bib -i
  pmem resolve refs.bib -o out.bib --providers dblp,crossref --metrics resolve.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

// ResolveSummary is the JSON output for the resolve command.
type ResolveSummary struct {
	Input     string         `json:"input"`
	Output    string         `json:"output,omitempty"`
	Entries   int            `json:"entries"`
	Preprints int            `json:"preprints"`
	Replaced  int            `json:"replaced"`
	Providers []string       `json:"providers"`
	Cancelled bool           `json:"cancelled,omitempty"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
	Matches   []ResolveMatch `json:"matches"`
}

// ResolveMatch describes one replaced entry.
type ResolveMatch struct {
	Key      string `json:"key"`
	Provider string `json:"provider"`
	Venue    string `json:"venue,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	input := args[0]
	if resolveInPlace && resolveOutput != "" {
		exitWithError(ExitError, "--in-place and --output are mutually exclusive")
	}
	output := resolveOutput
	if resolveInPlace {
		output = input
	}

	settings := loadResolveSettings()
	if resolveProviders != "" {
		order, err := config.ValidateProviderOrder(splitList(resolveProviders))
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		settings.ProviderOrder = order
	}
	logger := newLogger(settings)

	doc, err := bibtex.ParseFile(input)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", input, err)
	}

	var metrics *resolver.Metrics
	if resolveMetrics != "" {
		metrics = resolver.NewMetrics()
	}
	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithResolver(mustNewResolver(settings, logger, metrics)),
	)

	token := &resolver.CancelToken{}
	var interrupted atomic.Bool
	stop := handleInterrupts(token, &interrupted)
	defer stop()

	opts := resolver.Options{Cancel: token}
	if !resolveQuiet {
		opts.OnProgress = func(p resolver.Progress) {
			fmt.Fprintln(os.Stderr, formatProgress(p))
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	results := eng.ResolveCitations(ctx, doc.Entries, opts)
	replacements := resolver.Replacements(doc.Entries, results)

	summary := summarizeResolve(doc.Entries, results, replacements, eng.Providers())
	summary.Input = input
	summary.Output = output
	summary.Cancelled = interrupted.Load()
	summary.Elapsed = time.Since(start)

	text := doc.Rewrite(replacements)
	if output == "" {
		fmt.Print(text)
	} else if err := os.WriteFile(output, []byte(text), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", output, err)
	}

	if metrics != nil {
		if err := metrics.WriteToTextfile(resolveMetrics); err != nil {
			logger.Warn().Err(err).Str("path", resolveMetrics).Msg("writing metrics failed")
		}
	}

	reportResolve(summary, output == "")

	if summary.Cancelled {
		os.Exit(ExitInterrupted)
	}
	return nil
}

// loadResolveSettings uses the library's settings when run inside one, and
// the global settings otherwise.
func loadResolveSettings() config.Settings {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	if root, err := config.FindRepository(start); err == nil {
		return mustLoadSettings(root)
	}

	global, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	settings, err := config.Resolve("", global, nil)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if logLevelFlag != "" {
		settings.LogLevel = logLevelFlag
	}
	return settings
}

// handleInterrupts cancels the batch on the first interrupt and exits on
// the second. The returned function stops signal delivery.
func handleInterrupts(token *resolver.CancelToken, interrupted *atomic.Bool) func() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigs:
				if interrupted.Swap(true) {
					fmt.Fprintln(os.Stderr, "aborted")
					os.Exit(ExitInterrupted)
				}
				fmt.Fprintln(os.Stderr, "stopping after the current entry (press Ctrl-C again to abort)")
				token.Cancel()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// formatProgress renders one progress report.
func formatProgress(p resolver.Progress) string {
	provider := p.CurrentProviderName
	if provider == "" {
		provider = "skipped"
	}
	return fmt.Sprintf("[%d/%d] %s (%s)", p.CompletedCount, p.TotalCount,
		truncateString(p.CurrentEntryTitle, ListTitleMaxLen), provider)
}

// summarizeResolve counts preprints and lists the entries that were
// replaced.
func summarizeResolve(entries []bibtex.Entry, results []*resolver.Result, replacements map[int]bibtex.Entry, providers []string) ResolveSummary {
	summary := ResolveSummary{
		Entries:   len(entries),
		Replaced:  len(replacements),
		Providers: providers,
		Matches:   []ResolveMatch{},
	}
	if summary.Providers == nil {
		summary.Providers = []string{}
	}
	for i, e := range entries {
		if bibtex.IsPreprint(e) {
			summary.Preprints++
		}
		if _, ok := replacements[i]; !ok {
			continue
		}
		summary.Matches = append(summary.Matches, ResolveMatch{
			Key:      e.CitationKey,
			Provider: results[i].SourceProvider,
			Venue:    results[i].Venue,
		})
	}
	return summary
}

// reportResolve prints the summary. When the BibTeX went to stdout, the
// summary goes to stderr so the two never mix.
func reportResolve(summary ResolveSummary, bibOnStdout bool) {
	if humanOutput || bibOnStdout {
		w := os.Stdout
		if bibOnStdout {
			w = os.Stderr
		}
		for _, m := range summary.Matches {
			fmt.Fprintf(w, "  %s -> %s (%s)\n", m.Key, m.Venue, m.Provider)
		}
		fmt.Fprintf(w, "Replaced %d of %d preprint citations (%d entries) in %s\n",
			summary.Replaced, summary.Preprints, summary.Entries, formatDuration(summary.Elapsed))
		if summary.Cancelled {
			fmt.Fprintln(w, "Cancelled before all entries were checked")
		}
		return
	}
	outputJSON(summary)
}
