package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/molbridge/pubchem-mcp/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pubchem-mcp",
	Short: "PubChem compound data over the Model Context Protocol",
	Long: `pubchem-mcp serves PubChem compound data to MCP clients over stdio,
with synchronous and asynchronous retrieval, a local result cache, and
batch conversion of retention-time datasets to XYZ structures.`,
	SilenceUsage: true,
}

// newLogger builds the process logger. Log output goes to stderr because
// stdout carries the protocol stream; a log file is added when configured.
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	cleanup := func() {}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		cleanup = func() { f.Close() }
	}

	return config.NewLogger(w, cfg.Level()), cleanup, nil
}
