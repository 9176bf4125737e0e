package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matsen/papermem/internal/paper"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 50 // Default limit for search/list commands

	ListTitleMaxLen   = 60 // Used in list and search output
	DetailTitleMaxLen = 76 // Used in get command detail view
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// displayTitle returns the record title, or its landing URL when untitled.
func displayTitle(rec paper.Record) string {
	if rec.Title != "" {
		return rec.Title
	}
	if rec.LandingURL != "" {
		return rec.LandingURL
	}
	return "(untitled)"
}

// formatRecordLine formats a record as one line of a listing.
func formatRecordLine(rec paper.Record) string {
	star := " "
	if rec.IsFavorite() {
		star = "*"
	}
	return fmt.Sprintf("%s %-28s %3d  %s", star, rec.ID, rec.VisitCount, truncateString(displayTitle(rec), ListTitleMaxLen))
}

// formatRecordHuman formats a record for the detail view.
func formatRecordHuman(rec paper.Record, files []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", rec.ID)
	fmt.Fprintf(&sb, "  Title:    %s\n", truncateString(displayTitle(rec), DetailTitleMaxLen))
	if rec.Author != "" {
		fmt.Fprintf(&sb, "  Authors:  %s\n", rec.Author)
	}
	if rec.Year != "" {
		fmt.Fprintf(&sb, "  Year:     %s\n", rec.Year)
	}
	fmt.Fprintf(&sb, "  Source:   %s\n", rec.Source)
	fmt.Fprintf(&sb, "  Landing:  %s\n", rec.LandingURL)
	fmt.Fprintf(&sb, "  Document: %s\n", rec.DocumentURL)
	for _, alias := range rec.Aliases {
		fmt.Fprintf(&sb, "  Alias:    %s\n", alias)
	}
	for _, f := range files {
		fmt.Fprintf(&sb, "  File:     %s\n", f)
	}
	if len(rec.Tags) > 0 {
		fmt.Fprintf(&sb, "  Tags:     %s\n", strings.Join(rec.Tags, ", "))
	}
	if rec.CodeLink != "" {
		fmt.Fprintf(&sb, "  Code:     %s\n", rec.CodeLink)
	}
	if rec.Note != "" {
		fmt.Fprintf(&sb, "  Note:     %s\n", strings.ReplaceAll(rec.Note, "\n", "\n            "))
	}
	fmt.Fprintf(&sb, "  Visits:   %d (added %s, last opened %s)\n",
		rec.VisitCount, formatDate(rec.AddDate), formatDate(rec.LastOpenDate))
	if rec.FavoriteDate != nil {
		fmt.Fprintf(&sb, "  Favorite: since %s\n", formatDate(*rec.FavoriteDate))
	}
	return sb.String()
}

// formatDate formats a timestamp as a local calendar date.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02")
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
