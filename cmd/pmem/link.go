package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/paper"
)

func init() {
	rootCmd.AddCommand(linkCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link <file> <id>",
	Short: "Link a local PDF to a paper",
	Long: `Link a local file to a paper, so that observing or opening the file
counts as a visit of the paper.`,
	Args: cobra.ExactArgs(2),
	RunE: runLink,
}

// LinkResult is the JSON output for the link command.
type LinkResult struct {
	Path string   `json:"path"`
	ID   paper.ID `json:"id"`
}

func runLink(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	path, err := filepath.Abs(args[0])
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}
	id := paper.ID(args[1])

	if err := eng.Link(path, id); err != nil {
		exitForEngineError(err)
	}
	mustSave(eng)

	if humanOutput {
		fmt.Printf("Linked %s to %s\n", path, id)
	} else {
		outputJSON(LinkResult{Path: path, ID: id})
	}

	return nil
}
