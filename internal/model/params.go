package model

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a lookup is requested without a query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// ErrXYZRequires3D is returned when the XYZ format is requested without 3D
// structure data. The message is part of the tool contract and surfaced to
// callers verbatim.
var ErrXYZRequires3D = errors.New("When using XYZ format, the include_3d parameter must be set to true")

// Params holds the inputs for one compound lookup. The same validation applies
// to the synchronous direct path and the asynchronous submission path.
type Params struct {
	Query     string `json:"query"`
	Format    Format `json:"format"`
	Include3D bool   `json:"include_3d"`
}

// Validate checks that the parameters form an acceptable lookup.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return ErrEmptyQuery
	}
	if p.Format == FormatXYZ && !p.Include3D {
		return ErrXYZRequires3D
	}
	return nil
}
