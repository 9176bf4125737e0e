package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/clipboard"
	"github.com/matsen/papermem/internal/paper"
)

// clipboardUnavailableMsg is the standard warning when clipboard is not available.
const clipboardUnavailableMsg = "clipboard unavailable (install wl-copy, xclip or xsel on Linux)"

var (
	urlCopyFlag     bool
	urlDocumentFlag bool
)

func init() {
	urlCmd.Flags().BoolVar(&urlCopyFlag, "copy", false, "Copy URL to system clipboard")
	urlCmd.Flags().BoolVar(&urlDocumentFlag, "document", false, "Output the document (PDF) URL instead of the landing page")
	rootCmd.AddCommand(urlCmd)
}

var urlCmd = &cobra.Command{
	Use:   "url <id>",
	Short: "Get the URL of a paper",
	Long: `Get the landing page URL of a paper, or its document URL with --document.

Examples:
  pmem url arxiv-1703.10593
  pmem url arxiv-1703.10593 --document --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runURL,
}

// URLResult is the JSON output for pmem url.
type URLResult struct {
	URL    string `json:"url"`    // The selected URL
	Kind   string `json:"kind"`   // landing or document
	Copied bool   `json:"copied"` // true if --copy succeeded
}

func runURL(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	landing, document, err := eng.URLs(paper.ID(args[0]))
	if err != nil {
		exitForEngineError(err)
	}

	url, kind := landing, "landing"
	if urlDocumentFlag {
		url, kind = document, "document"
	}

	copied, clipboardWarning := copyIfRequested(urlCopyFlag, url)

	if humanOutput {
		fmt.Println(url)
		if copied {
			fmt.Fprintln(os.Stderr, "Copied to clipboard")
		} else if clipboardWarning != "" {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", clipboardWarning)
		}
	} else {
		outputJSON(URLResult{
			URL:    url,
			Kind:   kind,
			Copied: copied,
		})
	}

	return nil
}

// copyIfRequested copies text to the clipboard when asked. Clipboard
// failures are warnings, never errors.
func copyIfRequested(requested bool, text string) (copied bool, warning string) {
	if !requested {
		return false, ""
	}
	if err := clipboard.Copy(text); err != nil {
		if errors.Is(err, clipboard.ErrClipboardUnavailable) {
			return false, clipboardUnavailableMsg
		}
		return false, fmt.Sprintf("clipboard error: %v", err)
	}
	return true, ""
}
