package pubchem

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// csvHeaders is the column order for CSV output.
var csvHeaders = []string{
	"CID", "IUPACName", "MolecularFormula", "MolecularWeight",
	"CanonicalSMILES", "InChI", "InChIKey",
}

func renderJSON(cp Compound) (string, error) {
	b, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode compound: %w", err)
	}
	return string(b), nil
}

func renderCSV(cp Compound) (string, error) {
	record := []string{
		cp.CID, cp.IUPACName, cp.MolecularFormula, cp.MolecularWeight,
		cp.CanonicalSMILES, cp.InChI, cp.InChIKey,
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(csvHeaders); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	if err := w.Write(record); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
