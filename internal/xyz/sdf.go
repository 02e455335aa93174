package xyz

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoAtoms is returned when an SDF block yields no usable atom records.
var ErrNoAtoms = errors.New("no atoms found in SDF")

// atomLinePattern is the fallback for SDF writers that do not honor the
// fixed-width V2000 layout.
var atomLinePattern = regexp.MustCompile(`^\s*(-?\d+\.\d+)\s+(-?\d+\.\d+)\s+(-?\d+\.\d+)\s+([A-Za-z]+)`)

// ParseSDF extracts the atom block from a V2000 molfile. The counts line is
// line four; atom lines follow with coordinates in three 10-column fields and
// the element symbol starting at column 31. Lines that fail the fixed-width
// read fall back to whitespace matching.
func ParseSDF(content string) ([]Atom, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 4 {
		return nil, errors.New("SDF too short")
	}

	counts := lines[3]
	if len(counts) < 3 {
		return nil, errors.New("malformed counts line")
	}
	atomCount, err := strconv.Atoi(strings.TrimSpace(counts[:3]))
	if err != nil || atomCount <= 0 {
		return nil, errors.New("malformed counts line")
	}

	atoms := make([]Atom, 0, atomCount)
	for i := 0; i < atomCount && 4+i < len(lines); i++ {
		line := lines[4+i]
		if a, ok := parseAtomLine(line); ok {
			atoms = append(atoms, a)
		}
	}
	if len(atoms) == 0 {
		return nil, ErrNoAtoms
	}
	return atoms, nil
}

func parseAtomLine(line string) (Atom, bool) {
	if len(line) >= 31 {
		x, errX := strconv.ParseFloat(strings.TrimSpace(line[:10]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(line[10:20]), 64)
		z, errZ := strconv.ParseFloat(strings.TrimSpace(line[20:30]), 64)
		if errX == nil && errY == nil && errZ == nil {
			if sym := extractSymbol(line[30:]); sym != "" {
				return Atom{Symbol: sym, X: x, Y: y, Z: z}, true
			}
		}
	}

	m := atomLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Atom{}, false
	}
	x, _ := strconv.ParseFloat(m[1], 64)
	y, _ := strconv.ParseFloat(m[2], 64)
	z, _ := strconv.ParseFloat(m[3], 64)
	return Atom{Symbol: m[4], X: x, Y: y, Z: z}, true
}

// extractSymbol returns the first run of letters in the symbol field, or the
// fourth whitespace field of the full line when the symbol column is blank.
func extractSymbol(field string) string {
	var sym strings.Builder
	for _, r := range strings.TrimSpace(field) {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			sym.WriteRune(r)
			continue
		}
		if sym.Len() > 0 {
			break
		}
	}
	return sym.String()
}
