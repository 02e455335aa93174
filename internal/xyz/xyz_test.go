package xyz

import (
	"errors"
	"strings"
	"testing"
)

const waterSDF = `962
  -OEChem-08312409013D

  3  2  0     0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.1173 O   0  0  0  0  0  0  0  0  0  0  0  0
    0.0000    0.7572   -0.4692 H   0  0  0  0  0  0  0  0  0  0  0  0
    0.0000   -0.7572   -0.4692 H   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
  1  3  1  0  0  0  0
M  END
$$$$
`

func TestParseSDF(t *testing.T) {
	atoms, err := ParseSDF(waterSDF)
	if err != nil {
		t.Fatalf("ParseSDF: %v", err)
	}
	if len(atoms) != 3 {
		t.Fatalf("got %d atoms, want 3", len(atoms))
	}
	if atoms[0].Symbol != "O" || atoms[1].Symbol != "H" || atoms[2].Symbol != "H" {
		t.Errorf("symbols = %s %s %s", atoms[0].Symbol, atoms[1].Symbol, atoms[2].Symbol)
	}
	if atoms[0].Z != 0.1173 {
		t.Errorf("O z = %v, want 0.1173", atoms[0].Z)
	}
	if atoms[1].Y != 0.7572 {
		t.Errorf("H y = %v, want 0.7572", atoms[1].Y)
	}
}

func TestParseSDFRegexpFallback(t *testing.T) {
	// Loose whitespace layout, not valid fixed-width V2000.
	sdf := "x\ny\nz\n  2  1  0     0  0  0  0  0  0999 V2000\n" +
		"1.5 -2.25 0.125 N\n" +
		"0.0 0.0 1.0 C\n" +
		"M  END\n"
	atoms, err := ParseSDF(sdf)
	if err != nil {
		t.Fatalf("ParseSDF: %v", err)
	}
	if len(atoms) != 2 {
		t.Fatalf("got %d atoms, want 2", len(atoms))
	}
	if atoms[0].Symbol != "N" || atoms[0].X != 1.5 || atoms[0].Y != -2.25 {
		t.Errorf("atom = %+v", atoms[0])
	}
}

func TestParseSDFErrors(t *testing.T) {
	if _, err := ParseSDF("too\nshort"); err == nil {
		t.Error("short input should fail")
	}
	if _, err := ParseSDF("a\nb\nc\nnot a counts line\n"); err == nil {
		t.Error("bad counts line should fail")
	}

	noAtoms := "a\nb\nc\n  2  0  0     0  0  0  0  0  0999 V2000\ngarbage\ngarbage\n"
	if _, err := ParseSDF(noAtoms); !errors.Is(err, ErrNoAtoms) {
		t.Errorf("err = %v, want ErrNoAtoms", err)
	}
}

func TestDocumentString(t *testing.T) {
	doc := Document{
		Info: "cid=962 formula=H2O",
		Atoms: []Atom{
			{Symbol: "O", X: 0, Y: 0, Z: 0.1173},
			{Symbol: "H", X: 0, Y: 0.7572, Z: -0.4692},
		},
	}

	got := doc.String()
	want := "2\ncid=962 formula=H2O\nO 0.000000 0.000000 0.117300\nH 0.000000 0.757200 -0.469200\n"
	if got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestDocumentStringDefaultsSymbol(t *testing.T) {
	doc := Document{Atoms: []Atom{{Symbol: "0", X: 1, Y: 2, Z: 3}, {Symbol: " ", X: 4, Y: 5, Z: 6}}}
	out := doc.String()
	for _, line := range strings.Split(strings.TrimSpace(out), "\n")[2:] {
		if !strings.HasPrefix(line, "C ") {
			t.Errorf("line %q should default to carbon", line)
		}
	}
}

func TestInfoLine(t *testing.T) {
	got := InfoLine([][2]string{
		{"name", "aspirin"},
		{"cid", "2244"},
		{"inchikey", ""},
		{"formula", "C9H8O4"},
	})
	want := "name=aspirin cid=2244 formula=C9H8O4"
	if got != want {
		t.Errorf("InfoLine = %q, want %q", got, want)
	}
}

func TestAtomicNumber(t *testing.T) {
	cases := map[string]int{"H": 1, "C": 6, "O": 8, "Fe": 26, "Fm": 100, "Xx": 0}
	for sym, want := range cases {
		if got := AtomicNumber(sym); got != want {
			t.Errorf("AtomicNumber(%q) = %d, want %d", sym, got, want)
		}
	}
}
