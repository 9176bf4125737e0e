package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/storage"
)

var (
	searchLimit     int
	searchTitle     string
	searchAuthor    string
	searchSource    string
	searchTag       string
	searchFavorites bool
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringVarP(&searchTitle, "title", "t", "", "Search in title only")
	searchCmd.Flags().StringVarP(&searchAuthor, "author", "a", "", "Search by author name (prefix match)")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "Filter by source (arxiv, openreview, doi, ...)")
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "Filter by tag")
	searchCmd.Flags().BoolVar(&searchFavorites, "favorites", false, "Only favorites")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search papers by keyword, title, author, or tag",
	Long: `Search the library's search cache.

The positional query matches titles, authors, notes and tags. Filters
combine with AND logic. Results are ordered by most recent visit.

Examples:
  pmem search "cycle consistent"
  pmem search -a Zhu --source arxiv
  pmem search --tag gan --favorites --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters := storage.SearchFilters{
		Title:     searchTitle,
		Author:    searchAuthor,
		Source:    searchSource,
		Tag:       searchTag,
		Favorites: searchFavorites,
	}
	if len(args) > 0 {
		filters.Keyword = args[0]
	}
	if filters == (storage.SearchFilters{}) {
		exitWithError(ExitError, "must specify a query or at least one filter")
	}

	root := mustFindRepository()
	db := mustOpenDatabase(root)
	defer db.Close()

	records, err := db.SearchWithFilters(filters, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	// Empty result is not an error
	if records == nil {
		records = []paper.Record{}
	}

	if humanOutput {
		if len(records) == 0 {
			fmt.Println("No papers found")
		} else {
			fmt.Printf("Found %d papers:\n\n", len(records))
			for _, rec := range records {
				fmt.Println(formatRecordLine(rec))
			}
		}
	} else {
		outputJSON(records)
	}

	return nil
}
