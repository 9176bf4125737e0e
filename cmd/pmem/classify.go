package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/source"
)

func init() {
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Show how URLs map to paper identities",
	Long: `Classify URLs without touching any library.

Each URL is matched against the known paper sources. Matching URLs report
their source, paper id and canonical landing and document URLs; other URLs
are reported as not a paper.

Examples:
  pmem classify https://arxiv.org/pdf/1703.10593v7.pdf
  pmem classify https://openreview.net/forum?id=abc123 --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

// ClassifyResult is the JSON output for one classified URL.
type ClassifyResult struct {
	URL         string   `json:"url"`
	IsPaper     bool     `json:"is_paper"`
	Source      string   `json:"source,omitempty"`
	LocalID     string   `json:"local_id,omitempty"`
	ID          paper.ID `json:"id,omitempty"`
	LandingURL  string   `json:"landing_url,omitempty"`
	DocumentURL string   `json:"document_url,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	registry := source.DefaultRegistry()

	results := make([]ClassifyResult, 0, len(args))
	for _, raw := range args {
		results = append(results, classifyURL(registry, raw))
	}

	if humanOutput {
		for _, r := range results {
			if !r.IsPaper {
				fmt.Printf("%s\n  not a paper\n", r.URL)
				continue
			}
			fmt.Printf("%s\n  id:       %s\n  landing:  %s\n  document: %s\n", r.URL, r.ID, r.LandingURL, r.DocumentURL)
		}
	} else {
		outputJSON(results)
	}

	return nil
}

// classifyURL canonicalizes one URL against the registry.
func classifyURL(registry *source.Registry, raw string) ClassifyResult {
	canon, ok := registry.Canonicalize(raw)
	if !ok {
		return ClassifyResult{URL: raw}
	}
	return ClassifyResult{
		URL:         raw,
		IsPaper:     true,
		Source:      canon.Source,
		LocalID:     canon.LocalID,
		ID:          canon.ID(),
		LandingURL:  canon.LandingURL,
		DocumentURL: canon.DocumentURL,
	}
}
