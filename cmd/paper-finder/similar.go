// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/search"
)

var similarCmd = &cobra.Command{
	Use:   "similar [paper-url]",
	Short: "Find papers similar to one identified by URL",
	Long: `Similar asks the provider for research papers related to the paper at
the given URL and prints them with their summaries.`,
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().Int("num-results", 0, "number of results (default 10)")
	similarCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one paper URL")
	}

	cfg := buildConfig().Search
	if n, _ := cmd.Flags().GetInt("num-results"); n > 0 {
		cfg.NumResults = n
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("search provider API key is required")
	}

	client := search.NewClient(cfg.APIKey)
	client.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	papers, err := client.FindSimilar(cmd.Context(), args[0], cfg)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(papers, os.Stdout)
	}
	search.FormatTable(papers, os.Stdout)
	return nil
}
