// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the provider for research papers",
	Long: `Search sends a free-text question to the search provider, restricted to
research papers, and prints the results with their summaries.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("num-results", 0, "number of results (default 10)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	cfg := buildConfig().Search
	if n, _ := cmd.Flags().GetInt("num-results"); n > 0 {
		cfg.NumResults = n
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("search provider API key is required")
	}

	client := search.NewClient(cfg.APIKey)
	client.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	papers, err := client.Search(cmd.Context(), query, cfg)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(papers, os.Stdout)
	}
	search.FormatTable(papers, os.Stdout)
	return nil
}
