package main

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/config"
	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/storage"
)

func init() {
	rootCmd.AddCommand(completionCmd)

	for _, cmd := range []*cobra.Command{getCmd, urlCmd, openCmd, removeCmd, mergeCmd} {
		cmd.ValidArgsFunction = completePaperIDs
	}
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate completion scripts for your shell. Paper ids complete from
the library found from the current directory.

Bash:
  $ source <(pmem completion bash)

Zsh:
  $ pmem completion zsh > "${fpath[1]}/_pmem"

Fish:
  $ pmem completion fish > ~/.config/fish/completions/pmem.fish

PowerShell:
  PS> pmem completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

// completePaperIDs completes paper ids from papers.jsonl. Completion must
// never exit or print, so every failure yields no suggestions.
func completePaperIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	start := libraryFlag
	if start == "" {
		start = config.GetLibraryPath()
	}
	if start == "" {
		start = "."
	}
	root, err := config.FindRepository(config.ExpandPath(start))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	records, err := storage.LoadPapers(config.PapersPath(root))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return matchingIDs(records, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// matchingIDs returns the sorted ids with the given prefix, each with its
// title as the completion description.
func matchingIDs(records map[paper.ID]paper.Record, prefix string) []string {
	var out []string
	for id, rec := range records {
		if !strings.HasPrefix(string(id), prefix) {
			continue
		}
		if rec.Title == "" {
			out = append(out, string(id))
			continue
		}
		out = append(out, string(id)+"\t"+truncateString(rec.Title, ListTitleMaxLen))
	}
	sort.Strings(out)
	return out
}
