package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/paper"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a paper by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// GetResult is the JSON output for the get command.
type GetResult struct {
	paper.Record
	LocalFiles []string `json:"local_files,omitempty"`
}

func runGet(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	rec, err := eng.Get(paper.ID(args[0]))
	if err != nil {
		exitForEngineError(err)
	}
	files := eng.LocalFiles(rec.ID)

	if humanOutput {
		fmt.Print(formatRecordHuman(rec, files))
	} else {
		outputJSON(GetResult{Record: rec, LocalFiles: files})
	}

	return nil
}
