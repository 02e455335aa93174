package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/molbridge/pubchem-mcp/internal/batch"
	"github.com/molbridge/pubchem-mcp/internal/cache"
	"github.com/molbridge/pubchem-mcp/internal/config"
	"github.com/molbridge/pubchem-mcp/internal/pubchem"
)

var batchThrottle time.Duration

var batchCmd = &cobra.Command{
	Use:   "batch <input file or directory> <output directory>",
	Short: "Convert retention-time TSV datasets to XYZ files",
	Long: `batch resolves each TSV row against PubChem and writes one XYZ file per
compound. A file input converts that single file; a directory input walks the
tree for *_rtdata_*_success.tsv and *_rtdata_*_failed.tsv files and mirrors
the directory layout under the output directory.`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().DurationVar(&batchThrottle, "throttle", 0, "pause between PubChem requests (default from config)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	throttle := cfg.BatchThrottle
	if cmd.Flags().Changed("throttle") {
		throttle = batchThrottle
	}

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
	proc := batch.New(client, logger, batch.Options{Throttle: throttle, Progress: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := os.Stat(input)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return proc.ProcessTree(ctx, input, output)
	}

	sum, err := proc.ProcessFile(ctx, input, output)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d, skipped %d, failed %d\n", sum.Processed, sum.Skipped, sum.Failed)
	return nil
}
