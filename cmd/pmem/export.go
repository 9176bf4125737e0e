package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/bibtex"
	"github.com/matsen/papermem/internal/paper"
)

var (
	exportKeys   string
	exportOutput string
	exportCopy   bool
)

func init() {
	exportCmd.Flags().StringVar(&exportKeys, "keys", "", "Export only specified IDs (comma-separated)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Copy the BibTeX to the system clipboard")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export papers as BibTeX",
	Long: `Export papers as BibTeX. A paper observed with a BibTeX entry is
exported as that entry; other papers get one built from their metadata.

Examples:
  pmem export
  pmem export --keys arxiv-1703.10593,openreview-abc123
  pmem export -o reading.bib`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	var ids []paper.ID
	for _, key := range splitList(exportKeys) {
		ids = append(ids, paper.ID(key))
	}

	entries, err := eng.Export(ids...)
	if err != nil {
		exitForEngineError(err)
	}

	// BibTeX is always text output, never JSON
	text := bibtex.ToStringList(entries)

	if exportOutput != "" {
		if err := os.WriteFile(exportOutput, []byte(text), 0644); err != nil {
			exitWithError(ExitError, "writing %s: %v", exportOutput, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d entries to %s\n", len(entries), exportOutput)
	} else {
		fmt.Print(text)
	}

	if copied, warning := copyIfRequested(exportCopy, text); copied {
		fmt.Fprintln(os.Stderr, "Copied to clipboard")
	} else if warning != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	return nil
}
