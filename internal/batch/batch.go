// Package batch converts retention-time TSV datasets into per-compound XYZ
// files, resolving each row against PubChem.
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/molbridge/pubchem-mcp/internal/pubchem"
	"github.com/molbridge/pubchem-mcp/internal/xyz"
)

// DefaultThrottle is the pause between PubChem requests.
const DefaultThrottle = 500 * time.Millisecond

// Column aliases accepted for the structure identifiers.
var (
	smilesColumns   = []string{"smiles.std", "smiles", "SMILES"}
	inchikeyColumns = []string{"inchikey.std", "inchikey", "InChIKey"}
)

// Options configure a Processor.
type Options struct {
	Throttle time.Duration
	Progress bool
}

// Summary reports the outcome of one file.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Processor converts TSV rows to XYZ files.
type Processor struct {
	client   *pubchem.Client
	logger   *slog.Logger
	throttle time.Duration
	progress bool
}

// New creates a batch processor.
func New(client *pubchem.Client, logger *slog.Logger, opts Options) *Processor {
	if opts.Throttle < 0 {
		opts.Throttle = DefaultThrottle
	}
	return &Processor{
		client:   client,
		logger:   logger.With("component", "batch"),
		throttle: opts.Throttle,
		progress: opts.Progress,
	}
}

type row struct {
	id       string
	name     string
	formula  string
	rt       string
	smiles   string
	inchikey string
}

// ProcessFile converts every row of a TSV file into an XYZ file under outDir.
// Rows without an id or SMILES are skipped; rows that already have an output
// file are skipped; rows PubChem cannot resolve count as failed.
func (p *Processor) ProcessFile(ctx context.Context, tsvPath, outDir string) (Summary, error) {
	var sum Summary

	rows, err := readRows(tsvPath)
	if err != nil {
		return sum, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return sum, fmt.Errorf("create output dir: %w", err)
	}

	var bar *progressbar.ProgressBar
	if p.progress {
		bar = progressbar.Default(int64(len(rows)), filepath.Base(tsvPath))
	}

	for i, r := range rows {
		if bar != nil {
			bar.Add(1)
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if r.id == "" {
			sum.Skipped++
			continue
		}
		if r.smiles == "" {
			p.logger.Warn("no SMILES for compound, skipping", "id", r.id)
			sum.Skipped++
			continue
		}

		outPath := filepath.Join(outDir, r.id+".xyz")
		if _, err := os.Stat(outPath); err == nil {
			p.logger.Info("output exists, skipping", "id", r.id)
			sum.Skipped++
			continue
		}

		if err := p.processRow(ctx, r, outPath); err != nil {
			p.logger.Warn("failed to generate structure", "id", r.id, "error", err)
			sum.Failed++
		} else {
			sum.Processed++
		}

		if p.throttle > 0 && i < len(rows)-1 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(p.throttle):
			}
		}
	}

	p.logger.Info("file processed",
		"file", tsvPath,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	return sum, nil
}

func (p *Processor) processRow(ctx context.Context, r row, outPath string) error {
	var cid string
	var err error

	if r.inchikey != "" {
		cid, err = p.client.CIDByInChIKey(ctx, r.inchikey)
		if err != nil {
			p.logger.Info("inchikey lookup failed, trying SMILES", "id", r.id, "error", err)
		}
	}
	if cid == "" {
		cid, err = p.client.CIDBySMILES(ctx, r.smiles)
		if err != nil {
			return fmt.Errorf("resolve CID: %w", err)
		}
	}

	sdf, err := p.client.DownloadSDF(ctx, cid)
	if err != nil {
		return fmt.Errorf("download SDF: %w", err)
	}
	atoms, err := xyz.ParseSDF(sdf)
	if err != nil {
		return fmt.Errorf("parse SDF: %w", err)
	}

	doc := xyz.Document{
		Info: xyz.InfoLine([][2]string{
			{"id", r.id},
			{"name", r.name},
			{"formula", r.formula},
			{"rt", r.rt},
			{"smiles", r.smiles},
			{"inchikey", r.inchikey},
			{"pubchem_cid", cid},
		}),
		Atoms: atoms,
	}

	if err := os.WriteFile(outPath, []byte(doc.String()), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// ProcessTree walks dataDir and converts every retention-time TSV file,
// mirroring the directory layout under outBase.
func (p *Processor) ProcessTree(ctx context.Context, dataDir, outBase string) error {
	return filepath.WalkDir(dataDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDatasetFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(dataDir, filepath.Dir(path))
		if err != nil {
			return err
		}
		outDir := filepath.Join(outBase, rel)

		p.logger.Info("processing dataset file", "file", path, "out", outDir)
		if _, err := p.ProcessFile(ctx, path, outDir); err != nil {
			return err
		}
		return nil
	})
}

// isDatasetFile matches the retention-time dataset naming convention.
func isDatasetFile(name string) bool {
	if !strings.Contains(name, "_rtdata_") {
		return false
	}
	return strings.HasSuffix(name, "_success.tsv") || strings.HasSuffix(name, "_failed.tsv")
}

func readRows(tsvPath string) ([]row, error) {
	f, err := os.Open(tsvPath)
	if err != nil {
		return nil, fmt.Errorf("open tsv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("tsv %s has no id column", tsvPath)
	}

	var rows []row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return cleanField(record[i])
		}
		firstOf := func(names []string) string {
			for _, name := range names {
				if v := field(name); v != "" {
					return v
				}
			}
			return ""
		}

		rows = append(rows, row{
			id:       field("id"),
			name:     field("name"),
			formula:  field("formula"),
			rt:       field("rt"),
			smiles:   firstOf(smilesColumns),
			inchikey: firstOf(inchikeyColumns),
		})
	}
	return rows, nil
}

// cleanField strips characters that would corrupt the XYZ info line.
func cleanField(s string) string {
	r := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
	return strings.TrimSpace(r.Replace(s))
}
