package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ihab-ag/baro-ai/internal/api"
	"github.com/ihab-ag/baro-ai/internal/command"
	"github.com/ihab-ag/baro-ai/internal/config"
	"github.com/ihab-ag/baro-ai/internal/confirm"
	"github.com/ihab-ag/baro-ai/internal/infra/sqlite"
	"github.com/ihab-ag/baro-ai/internal/logger"
	"github.com/ihab-ag/baro-ai/internal/nlu"
	"github.com/ihab-ag/baro-ai/internal/session"
	"github.com/ihab-ag/baro-ai/internal/storage"
	"github.com/ihab-ag/baro-ai/internal/storage/inmemory"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP message API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	var store storage.Store
	if cfg.Store.Path == "" {
		log.Warn().Msg("No database path configured - data is kept in memory only")
		store = inmemory.NewStore()
	} else {
		store, err = sqlite.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	}
	defer store.Close()

	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, log, ttl)
	resolver := nlu.NewResolver(nlu.NewGeminiOracle(cfg.Gemini.Model), log)
	router := command.NewRouter(sessions, resolver, confirm.NewManager(), log)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go sessions.Run(sweepCtx)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewServer(router, log).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}
