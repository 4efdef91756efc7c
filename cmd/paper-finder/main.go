// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-finder CLI. The serve
// command runs the HTTP API; search, similar, and ask exercise the
// same provider paths from the terminal.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-finder/internal/secrets"
	"github.com/pdiddy/paper-finder/pkg/logger"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "paper-finder/0.1"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the loaded secret
// for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-finder CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-finder",
	Short: "Find, stream, and discuss research papers",
	Long: `paper-finder fronts a research-paper search provider with a small HTTP
API and CLI. It searches for papers, finds similar ones by URL, streams
question answers with citations as they are generated, and relays chat
about a specific paper to a language model.

Run serve for the HTTP API, or use search, similar, and ask directly
from the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		logger.Init(viper.GetString("environment"))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-finder.yaml or ~/.config/paper-finder/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-finder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-finder"))
		}
	}

	viper.SetDefault("environment", logger.Development)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read_header_timeout", 10*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("search.timeout", 60*time.Second)
	viper.SetDefault("search.num_results", 10)
	viper.SetDefault("answer.max_duration", 100*time.Second)
	viper.SetDefault("chat.max_tokens", 1024)
	viper.SetDefault("chat.max_duration", 30*time.Second)
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.path", filepath.Join("cache", "paper-finder.db"))
	viper.SetDefault("cache.ttl", time.Hour)

	viper.SetEnvPrefix("PAPER_FINDER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the effective configuration from defaults,
// config file, environment, and loaded secrets.
func buildConfig() types.AppConfig {
	return types.AppConfig{
		Server: types.ServerConfig{
			Addr:              viper.GetString("server.addr"),
			ReadHeaderTimeout: viper.GetDuration("server.read_header_timeout"),
			ShutdownTimeout:   viper.GetDuration("server.shutdown_timeout"),
		},
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: defaultUserAgent,
			},
			NumResults:   viper.GetInt("search.num_results"),
			Category:     viper.GetString("search.category"),
			SummaryQuery: viper.GetString("search.summary_query"),
			MaxRetries:   viper.GetInt("search.max_retries"),
			APIKey:       secretDefault(secrets.ExaAPIKey, viper.GetString("search.api_key")),
		},
		Answer: types.AnswerConfig{
			Model:        viper.GetString("answer.model"),
			SystemPrompt: viper.GetString("answer.system_prompt"),
			MaxDuration:  viper.GetDuration("answer.max_duration"),
		},
		Chat: types.ChatConfig{
			Model:        viper.GetString("chat.model"),
			SystemPrompt: viper.GetString("chat.system_prompt"),
			MaxTokens:    viper.GetInt("chat.max_tokens"),
			MaxDuration:  viper.GetDuration("chat.max_duration"),
			APIKey:       secretDefault(secrets.AnthropicAPIKey, viper.GetString("chat.api_key")),
		},
		Cache: types.CacheConfig{
			Enabled: viper.GetBool("cache.enabled"),
			Path:    viper.GetString("cache.path"),
			TTL:     viper.GetDuration("cache.ttl"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
