// Package export renders the checklist state as a downloadable PDF.
package export

import "errors"

// Request contains parameters for an export operation
type Request struct {
	FirstName string
	LastName  string
	Email     string
	Progress  map[string]bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
