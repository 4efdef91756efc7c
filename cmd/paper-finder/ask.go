// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/client"
	"github.com/pdiddy/paper-finder/internal/stream"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Stream an answer from a running paper-finder server",
	Long: `Ask sends a question to a running server's answer endpoint and prints
the answer as it streams in, followed by its citations.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("server", "http://localhost:8080", "base URL of the paper-finder server")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a question")
	}
	query := strings.Join(args, " ")
	serverURL, _ := cmd.Flags().GetString("server")

	c := client.New(serverURL)
	defer c.Close()

	// Print content deltas as they arrive; citations once at the end.
	printed := 0
	var final stream.State
	err := c.Ask(cmd.Context(), query, func(st stream.State) {
		if len(st.Answer) > printed {
			fmt.Print(st.Answer[printed:])
			printed = len(st.Answer)
		}
		final = st
	})
	fmt.Println()
	if err != nil {
		if printed > 0 {
			fmt.Fprintln(os.Stderr, "(answer interrupted)")
		}
		return err
	}

	if len(final.Citations) > 0 {
		fmt.Println("\nCitations:")
		for i, cit := range final.Citations {
			title := cit.Title
			if title == "" {
				title = cit.URL
			}
			fmt.Printf("  [%d] %s\n      %s\n", i+1, title, cit.URL)
		}
	}
	return nil
}
