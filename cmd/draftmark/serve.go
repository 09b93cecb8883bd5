package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftmark/draftmark/internal/draftstore/server"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the draft-store dev server",
	Long: `Run the reference draft-store server: a chi HTTP server over a
sqlite database, speaking the same GET/PUT protocol the engine's
autosave client expects.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "sqlite database path (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.Server.DBPath = serveDB
	}
	log := newLogger(cfg.Log.Level)

	store, err := server.OpenStore(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.NewServer(store, log, server.Config{
		APIKey:     cfg.Store.APIKey,
		WriteRate:  cfg.Server.WriteRate,
		WriteBurst: cfg.Server.WriteBurst,
		MaxBytes:   cfg.Server.MaxBodyBytes,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting draft store", "addr", cfg.Server.Addr, "db", store.Path())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
