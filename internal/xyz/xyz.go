// Package xyz renders molecular 3D structures in XYZ format and parses the
// V2000 connection tables PubChem serves as SDF.
package xyz

import (
	"fmt"
	"strings"
)

// Atom is a single atom placed in 3D space.
type Atom struct {
	Symbol string
	X, Y, Z float64
}

func (a Atom) String() string {
	return fmt.Sprintf("%s %.6f %.6f %.6f", a.Symbol, a.X, a.Y, a.Z)
}

// Document is one molecule in XYZ format: atom count, a free-form info line,
// then one line per atom.
type Document struct {
	Info  string
	Atoms []Atom
}

// String renders the document. Atoms with an empty or placeholder "0" symbol
// are emitted as carbon so downstream tools never see a blank element column.
func (d Document) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%s\n", len(d.Atoms), d.Info)
	for _, a := range d.Atoms {
		sym := strings.TrimSpace(a.Symbol)
		if sym == "" || sym == "0" {
			sym = "C"
		}
		fmt.Fprintf(&b, "%s %.6f %.6f %.6f\n", sym, a.X, a.Y, a.Z)
	}
	return b.String()
}

// InfoLine builds the comment line from key=value pairs, keeping the given
// order and skipping empty values.
func InfoLine(pairs [][2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, kv[0]+"="+kv[1])
	}
	return strings.Join(parts, " ")
}
