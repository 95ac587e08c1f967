// Package export renders the mission recap as a downloadable PDF or DOCX.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for an export operation
type Request struct {
	Format      Format
	Title       string
	GeneratedBy string
}

// RecapRow is one flag line in the recap table.
type RecapRow struct {
	Field    string
	Label    string
	Done     int
	Total    int
	Percent  int
	Literal  string
	Complete bool
}

// RecapSection groups recap rows by mission phase.
type RecapSection struct {
	Title string
	Rows  []RecapRow
}

// RecapData holds everything the recap template renders.
type RecapData struct {
	Title       string
	GeneratedBy string
	GeneratedAt time.Time
	Sections    []RecapSection
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
