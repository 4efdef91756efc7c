// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/answer"
	"github.com/pdiddy/paper-finder/internal/cache"
	"github.com/pdiddy/paper-finder/internal/chat"
	"github.com/pdiddy/paper-finder/internal/search"
	"github.com/pdiddy/paper-finder/internal/server"
	"github.com/pdiddy/paper-finder/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the paper-finder HTTP API",
	Long: `Serve runs the HTTP API: paper search and similar-paper proxies, the
streaming answer endpoint, the chat relay, and a demo page at /.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("search provider API key is required (set .secrets/%s or PAPER_FINDER_SEARCH_API_KEY)", "exa-api-key")
	}

	provider := search.NewClient(cfg.Search.APIKey)

	var store *cache.Store
	if cfg.Cache.Enabled {
		var err error
		store, err = cache.Open(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()
		log.Info().Str("path", cfg.Cache.Path).Dur("ttl", cfg.Cache.TTL).Msg("search cache enabled")
	}

	srv := server.NewServer(server.Options{
		Searcher: provider,
		Answerer: &answer.Proxy{
			Streamer: server.ProviderStreamer{Client: provider},
			Config:   cfg.Answer,
		},
		Chatter: chat.New(cfg.Chat),
		Cache:   store,
		Search:  cfg.Search,
		Answer:  cfg.Answer,
		Chat:    cfg.Chat,
		Log:     logger.New("server"),
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		// No WriteTimeout: answer and chat responses are open-ended
		// streams with their own duration ceilings.
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
