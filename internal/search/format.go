// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// FormatTable writes papers as a human-readable table to w.
func FormatTable(papers []types.ResearchPaper, w io.Writer) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-56s  %-20s  %-4s  %s\n",
		"Rank", "Title", "Author", "Year", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, p := range papers {
		title := truncate(p.Title, 56)
		author := truncate(p.Author, 20)
		year := ""
		if y, ok := p.Year(); ok {
			year = fmt.Sprintf("%d", y)
		}
		fmt.Fprintf(w, "%-4d  %-56s  %-20s  %-4s  %s\n",
			i+1, title, author, year, p.URL)
	}

	fmt.Fprintf(w, "\n%d results\n", len(papers))
}

// FormatJSON writes papers as indented JSON to w.
func FormatJSON(papers []types.ResearchPaper, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
