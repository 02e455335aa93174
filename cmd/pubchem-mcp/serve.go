package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/molbridge/pubchem-mcp/internal/api"
	"github.com/molbridge/pubchem-mcp/internal/cache"
	"github.com/molbridge/pubchem-mcp/internal/config"
	"github.com/molbridge/pubchem-mcp/internal/engine"
	"github.com/molbridge/pubchem-mcp/internal/mcp"
	"github.com/molbridge/pubchem-mcp/internal/pubchem"
	"github.com/molbridge/pubchem-mcp/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP protocol on stdin/stdout",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := cache.Open(cfg.CacheDB)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer db.Close()

	client := pubchem.NewClient(logger, pubchem.Options{
		BaseURL:       cfg.BaseURL,
		Retries:       cfg.Retries,
		PropertyWait:  cfg.HTTPTimeout,
		StructureWait: cfg.SDFTimeout,
		DB:            db,
	})

	eng := engine.New(store.NewMemoryStore(), client, logger, engine.Options{
		Workers:       cfg.Workers,
		StatusTTL:     cfg.StatusTTL,
		SweepInterval: cfg.SweepInterval,
	})
	defer eng.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		httpSrv := api.NewServer(cfg.HTTPAddr, eng, client, logger)
		go func() {
			if err := httpSrv.Run(ctx); err != nil {
				logger.Error("http server failed", "error", err)
			}
		}()
	}

	srv := mcp.NewServer(eng, client, logger)
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
