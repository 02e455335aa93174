package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/molbridge/pubchem-mcp/internal/cache"
	"github.com/molbridge/pubchem-mcp/internal/config"
	"github.com/molbridge/pubchem-mcp/internal/model"
	"github.com/molbridge/pubchem-mcp/internal/pubchem"
)

var (
	queryFormat    string
	queryInclude3D bool
)

var queryCmd = &cobra.Command{
	Use:   "query <compound name or CID>",
	Short: "Retrieve compound data and print it to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryFormat, "format", "f", "JSON", "output format: JSON, CSV, or XYZ")
	queryCmd.Flags().BoolVar(&queryInclude3D, "include-3d", false, "include 3D structure information (XYZ format only)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := model.ParseFormat(queryFormat)
	if err != nil {
		return err
	}
	p := model.Params{Query: args[0], Format: format, Include3D: queryInclude3D}
	if err := p.Validate(); err != nil {
		if errors.Is(err, model.ErrXYZRequires3D) {
			return errors.New("When using XYZ format, the --include-3d parameter must be set to true")
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	opts := pubchem.Options{
		BaseURL:       cfg.BaseURL,
		Retries:       cfg.Retries,
		PropertyWait:  cfg.HTTPTimeout,
		StructureWait: cfg.SDFTimeout,
	}

	// The cache is best effort for one-shot queries.
	if err := ensureDataDir(cfg); err == nil {
		if db, err := cache.Open(cfg.CacheDB); err == nil {
			defer db.Close()
			opts.DB = db
		} else {
			logger.Warn("cache unavailable", "error", err)
		}
	}

	client := pubchem.NewClient(logger, opts)
	result, err := client.Fetch(context.Background(), p)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

func ensureDataDir(cfg config.Config) error {
	return os.MkdirAll(cfg.DataDir, 0o755)
}
