package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/config"
	"github.com/matsen/papermem/internal/storage"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a new papermem library",
	Long: `Initialize a new papermem library in the given directory
(default: the current directory).

Creates:
  .papermem/
  ├── papers.jsonl    # Paper records (source of truth)
  ├── files.jsonl     # Local files linked to papers
  ├── config.json     # Library settings
  └── cache/          # Search database (gitignored)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	} else if libraryFlag != "" {
		root = config.ExpandPath(libraryFlag)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a papermem library")
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating .papermem directory: %v", err)
	}
	if err := storage.SavePapers(config.PapersPath(root), nil); err != nil {
		exitWithError(ExitError, "creating papers.jsonl: %v", err)
	}
	if err := storage.SaveLocalFiles(config.FilesPath(root), nil); err != nil {
		exitWithError(ExitError, "creating files.jsonl: %v", err)
	}
	if err := (&config.Config{}).Save(root); err != nil {
		exitWithError(ExitError, "creating config.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(config.PapermemPath(root), ".gitignore"), []byte(config.CacheDir+"/\n"), 0644); err != nil {
		exitWithError(ExitError, "creating .gitignore: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized papermem library in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}

	return nil
}
