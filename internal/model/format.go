package model

import (
	"fmt"
	"strings"
)

// Format is the output format for compound data.
type Format string

// Supported output formats.
const (
	FormatJSON Format = "JSON"
	FormatCSV  Format = "CSV"
	FormatXYZ  Format = "XYZ"
)

// ParseFormat normalizes s onto the closed format set. An empty string
// defaults to JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "JSON":
		return FormatJSON, nil
	case "CSV":
		return FormatCSV, nil
	case "XYZ":
		return FormatXYZ, nil
	}
	return "", fmt.Errorf("unsupported format: %q", s)
}
