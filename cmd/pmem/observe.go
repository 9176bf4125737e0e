package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/papermem/internal/engine"
	"github.com/matsen/papermem/internal/identity"
	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/pdf"
	"github.com/matsen/papermem/internal/source"
)

// observeConcurrency bounds how many local PDFs are read at once.
const observeConcurrency = 4

var (
	observeTitle    string
	observeAuthor   string
	observeYear     string
	observeBibTeX   string
	observeTags     []string
	observeNote     string
	observeCode     string
	observeFavorite bool
)

func init() {
	observeCmd.Flags().StringVar(&observeTitle, "title", "", "Paper title")
	observeCmd.Flags().StringVar(&observeAuthor, "author", "", "Paper authors")
	observeCmd.Flags().StringVar(&observeYear, "year", "", "Publication year")
	observeCmd.Flags().StringVar(&observeBibTeX, "bibtex", "", "BibTeX entry for the paper")
	observeCmd.Flags().StringSliceVarP(&observeTags, "tag", "t", nil, "Tag to add (can be repeated or comma-separated)")
	observeCmd.Flags().StringVar(&observeNote, "note", "", "Note to attach")
	observeCmd.Flags().StringVar(&observeCode, "code", "", "Link to code for the paper")
	observeCmd.Flags().BoolVar(&observeFavorite, "favorite", false, "Mark the paper as a favorite")
	rootCmd.AddCommand(observeCmd)
}

var observeCmd = &cobra.Command{
	Use:   "observe <url|file>...",
	Short: "Record that you looked at a paper",
	Long: `Record a visit to each paper URL or local PDF.

A URL is mapped to its paper identity, so the abstract page, the PDF and
any version of a paper all count as the same paper. Observations whose
titles nearly match an existing paper are merged into it.

A local PDF already linked to a paper counts as a visit of that paper.
Otherwise the PDF is searched for an arXiv id or DOI and linked to the
resulting paper.

Metadata flags apply to every argument.

Examples:
  pmem observe https://arxiv.org/abs/1703.10593
  pmem observe https://openreview.net/pdf?id=abc123 --title "Some Title" -t gan
  pmem observe ~/Downloads/paper.pdf --favorite`,
	Args: cobra.MinimumNArgs(1),
	RunE: runObserve,
}

// ObserveResult is the JSON output for one observed argument.
type ObserveResult struct {
	Input      string   `json:"input"`
	ID         paper.ID `json:"id,omitempty"`
	Action     string   `json:"action,omitempty"`
	Title      string   `json:"title,omitempty"`
	VisitCount int      `json:"visit_count,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ObserveSummary is the JSON output for the observe command.
type ObserveSummary struct {
	Results []ObserveResult `json:"results"`
	Created int             `json:"created"`
	Updated int             `json:"updated"`
	Merged  int             `json:"merged"`
	Failed  int             `json:"failed"`
}

func runObserve(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	logger := newLogger(settings)
	eng := mustOpenEngine(settings, logger)

	hints := observeHints()
	results := observeAll(cmd.Context(), eng, args, hints)
	summary := summarizeObservations(results)

	if summary.Created+summary.Updated+summary.Merged > 0 {
		mustSave(eng)
	}

	if humanOutput {
		for _, r := range summary.Results {
			if r.Error != "" {
				fmt.Fprintf(os.Stderr, "%s: %s\n", r.Input, r.Error)
				continue
			}
			fmt.Printf("%-8s %s  %s\n", r.Action, r.ID, truncateString(r.Title, ListTitleMaxLen))
		}
	} else {
		outputJSON(summary)
	}

	if summary.Failed > 0 {
		os.Exit(observeExitCode(results))
	}
	return nil
}

// observeHints builds the observation hints from flags.
func observeHints() paper.Hints {
	return paper.Hints{
		Title:    strings.TrimSpace(observeTitle),
		Author:   strings.TrimSpace(observeAuthor),
		Year:     strings.TrimSpace(observeYear),
		BibTeX:   observeBibTeX,
		Tags:     paper.UnionTags(observeTags, nil),
		Note:     observeNote,
		CodeLink: strings.TrimSpace(observeCode),
		Favorite: observeFavorite,
	}
}

// observeOutcome pairs a result with the error that produced it.
type observeOutcome struct {
	result ObserveResult
	err    error
}

// fileIdentity is the result of reading one local PDF argument.
type fileIdentity struct {
	path  string
	ident pdf.Identity
	err   error
}

// observeAll observes every argument in order. Only the reads of local PDFs
// run concurrently; observations are applied one at a time, in argument
// order, so earlier arguments create the records later ones update.
func observeAll(ctx context.Context, eng *engine.Engine, args []string, hints paper.Hints) []observeOutcome {
	if ctx == nil {
		ctx = context.Background()
	}

	files := make([]*fileIdentity, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(observeConcurrency)
	for i, arg := range args {
		path, ok := localPath(arg)
		if !ok {
			continue
		}
		f := &fileIdentity{path: path}
		files[i] = f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				f.err = err
				return nil
			}
			f.ident, f.err = eng.IdentifyFile(f.path)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]observeOutcome, len(args))
	for i, arg := range args {
		if err := ctx.Err(); err != nil {
			out[i] = failedObservation(arg, err)
			continue
		}
		out[i] = observeOne(eng, arg, files[i], hints)
	}
	return out
}

// observeOne observes a URL, or a local file when f is non-nil.
func observeOne(eng *engine.Engine, arg string, f *fileIdentity, hints paper.Hints) observeOutcome {
	var (
		obs engine.Observation
		err error
	)
	switch {
	case f == nil:
		obs, err = eng.Observe(arg, hints)
	case f.err != nil:
		err = f.err
	default:
		obs, err = eng.ObserveIdentifiedFile(f.path, f.ident, hints)
	}
	if err != nil {
		return failedObservation(arg, err)
	}
	return observeOutcome{result: ObserveResult{
		Input:      arg,
		ID:         obs.ID,
		Action:     string(obs.Action),
		Title:      obs.Record.Title,
		VisitCount: obs.Record.VisitCount,
	}}
}

func failedObservation(arg string, err error) observeOutcome {
	return observeOutcome{result: ObserveResult{Input: arg, Error: err.Error()}, err: err}
}

// localPath returns the file path named by a file:// URL or an existing
// file argument.
func localPath(arg string) (string, bool) {
	if strings.HasPrefix(arg, "file://") {
		return strings.TrimPrefix(arg, "file://"), true
	}
	if !source.IsLocalFile(arg) {
		return "", false
	}
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return "", false
	}
	return arg, true
}

// summarizeObservations counts outcomes by action.
func summarizeObservations(outcomes []observeOutcome) ObserveSummary {
	summary := ObserveSummary{Results: make([]ObserveResult, 0, len(outcomes))}
	for _, o := range outcomes {
		summary.Results = append(summary.Results, o.result)
		if o.err != nil {
			summary.Failed++
			continue
		}
		switch o.result.Action {
		case string(identity.ActionCreated):
			summary.Created++
		case string(identity.ActionUpdated):
			summary.Updated++
		case string(identity.ActionMerged):
			summary.Merged++
		}
	}
	return summary
}

// observeExitCode picks the exit code for a run with failures. A run where
// every failure is a non-paper URL exits with ExitNotAPaper.
func observeExitCode(outcomes []observeOutcome) int {
	code := 0
	for _, o := range outcomes {
		if o.err == nil {
			continue
		}
		if errors.Is(o.err, engine.ErrNotAPaper) {
			if code == 0 {
				code = ExitNotAPaper
			}
			continue
		}
		code = ExitError
	}
	return code
}
