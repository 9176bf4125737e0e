package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/pdf"
	"github.com/matsen/papermem/internal/source"
)

var openLanding bool

func init() {
	openCmd.Flags().BoolVar(&openLanding, "landing", false, "Open the landing page instead of the document")
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a paper in the configured viewer",
	Long: `Open a paper and count the visit.

A linked local file is preferred over the document URL. The viewer is the
'viewer' command from the global config, or the system opener.

Examples:
  pmem open arxiv-1703.10593
  pmem open arxiv-1703.10593 --landing`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

// OpenResult is the JSON output for the open command.
type OpenResult struct {
	ID         paper.ID `json:"id"`
	Target     string   `json:"target"`
	VisitCount int      `json:"visit_count"`
}

func runOpen(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	id := paper.ID(args[0])
	landing, document, err := eng.URLs(id)
	if err != nil {
		exitForEngineError(err)
	}

	target := openTarget(landing, document, eng.LocalFiles(id), openLanding)
	if target == "" || target == source.PlaceholderURL {
		exitWithError(ExitDataError, "no URL or local file to open for %s", id)
	}

	if err := pdf.NewOpener(settings.Viewer).Open(target); err != nil {
		exitWithError(ExitError, "opening %s: %v", target, err)
	}

	// Opening counts as a visit.
	obs, err := eng.Observe(landing, paper.Hints{})
	if err != nil {
		exitForEngineError(err)
	}
	mustSave(eng)

	if humanOutput {
		fmt.Printf("Opened %s (%d visits)\n", target, obs.Record.VisitCount)
	} else {
		outputJSON(OpenResult{ID: obs.ID, Target: target, VisitCount: obs.Record.VisitCount})
	}

	return nil
}

// openTarget picks what to open: the landing page when asked, else the
// first linked local file, else the document URL.
func openTarget(landing, document string, files []string, preferLanding bool) string {
	if preferLanding {
		return landing
	}
	if len(files) > 0 {
		return files[0]
	}
	if document != "" && document != source.PlaceholderURL {
		return document
	}
	return landing
}
