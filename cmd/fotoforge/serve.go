package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fotoforge/internal/appinfo"
	"fotoforge/internal/config"
	"fotoforge/internal/database"
	"fotoforge/internal/editor"
	"fotoforge/internal/handlers"
	"fotoforge/pkg/logger"
)

func serveCmd() *cobra.Command {
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(ephemeral)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Keep users and projects in memory only")
	return cmd
}

func serve(parent context.Context, a *app) error {
	cfg := a.cfg
	if cfg.App.StartMessage {
		printAsciiLogo(cfg.App.Name)
		printSignature(cfg.App.Name, cfg.App.Version)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	appinfo.MarkStarted(time.Now())

	sessions := editor.NewRegistry(config.Duration(cfg.Editor.SessionTTL, 30*time.Minute), a.newEngine)
	go sessions.Run(ctx, time.Minute)

	if a.db != nil {
		cleaner := database.NewCleaner(a.db, cfg.Database.Path, cfg.Database.MaxSize,
			config.Duration(cfg.Database.PruneInterval, 5*time.Minute))
		go cleaner.Run(ctx)
	} else {
		logger.LogWarn("Running with an in-memory store; nothing will be persisted.")
	}

	h, err := handlers.New(handlers.Deps{
		Config:   cfg,
		DB:       a.db,
		Gate:     a.gate,
		Projects: a.projects,
		Loader:   a.loader,
		Sessions: sessions,
		Cache:    a.cache,
	})
	if err != nil {
		return err
	}
	for _, rl := range h.Limiters() {
		go rl.Run(ctx)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.LogServerStart(cfg.Server.Port, cfg.GetBaseUrl())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.LogInfo("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
