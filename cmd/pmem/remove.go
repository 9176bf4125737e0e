package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/paper"
)

func init() {
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(mergeCmd)
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>...",
	Aliases: []string{"rm"},
	Short:   "Forget papers",
	Long: `Remove papers from the library along with their local file links.
The files themselves are not touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

// RemoveResult is the JSON output for the remove command.
type RemoveResult struct {
	Removed []paper.ID `json:"removed"`
}

func runRemove(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	// Check every id before removing any.
	for _, arg := range args {
		if _, err := eng.Get(paper.ID(arg)); err != nil {
			exitForEngineError(err)
		}
	}

	result := RemoveResult{Removed: []paper.ID{}}
	for _, arg := range args {
		id := paper.ID(arg)
		if err := eng.Remove(id); err != nil {
			exitForEngineError(err)
		}
		result.Removed = append(result.Removed, id)
	}
	mustSave(eng)

	if humanOutput {
		for _, id := range result.Removed {
			fmt.Printf("Removed %s\n", id)
		}
	} else {
		outputJSON(result)
	}

	return nil
}

var mergeCmd = &cobra.Command{
	Use:   "merge <keep-id> <drop-id>",
	Short: "Merge two records of the same paper",
	Long: `Fold the second paper into the first.

Visits are summed, tags are combined, the earliest add date and latest open
date are kept, and the dropped paper's URLs are remembered as aliases.
Local files linked to the dropped paper are linked to the kept one.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	keep, drop := paper.ID(args[0]), paper.ID(args[1])
	if keep == drop {
		exitWithError(ExitError, "cannot merge %s into itself", keep)
	}

	rec, err := eng.Merge(keep, drop)
	if err != nil {
		exitForEngineError(err)
	}
	mustSave(eng)

	if humanOutput {
		fmt.Printf("Merged %s into %s\n\n", drop, keep)
		fmt.Print(formatRecordHuman(rec, eng.LocalFiles(rec.ID)))
	} else {
		outputJSON(rec)
	}

	return nil
}
