// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the merged configuration from defaults, the config file,
environment variables, and loaded secrets. API keys are redacted.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if cfg.Search.APIKey != "" {
		cfg.Search.APIKey = "<redacted>"
	}
	if cfg.Chat.APIKey != "" {
		cfg.Chat.APIKey = "<redacted>"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
