package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermem/internal/paper"
)

var (
	listLimit     int
	listFavorites bool
	listTag       string
	listSource    string
)

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum papers to list (0 for all)")
	listCmd.Flags().BoolVar(&listFavorites, "favorites", false, "Only list favorites")
	listCmd.Flags().StringVarP(&listTag, "tag", "t", "", "Only list papers with this tag")
	listCmd.Flags().StringVar(&listSource, "source", "", "Only list papers from this source")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers, most recently opened first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	settings := mustLoadSettings(root)
	eng := mustOpenEngine(settings, newLogger(settings))

	records := filterRecords(eng.List(), listFilter{
		favorites: listFavorites,
		tag:       listTag,
		source:    listSource,
		limit:     listLimit,
	})

	if humanOutput {
		if len(records) == 0 {
			fmt.Println("No papers found")
			return nil
		}
		for _, rec := range records {
			fmt.Println(formatRecordLine(rec))
		}
	} else {
		outputJSON(records)
	}

	return nil
}

// listFilter selects records for the list command.
type listFilter struct {
	favorites bool
	tag       string
	source    string
	limit     int
}

// filterRecords keeps records matching every set criterion, preserving
// order. Never returns nil.
func filterRecords(records []paper.Record, f listFilter) []paper.Record {
	out := []paper.Record{}
	for _, rec := range records {
		if f.favorites && !rec.IsFavorite() {
			continue
		}
		if f.source != "" && rec.Source != f.source {
			continue
		}
		if f.tag != "" && !hasTag(rec, f.tag) {
			continue
		}
		out = append(out, rec)
		if f.limit > 0 && len(out) == f.limit {
			break
		}
	}
	return out
}

func hasTag(rec paper.Record, tag string) bool {
	for _, t := range rec.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
