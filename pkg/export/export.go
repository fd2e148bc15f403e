package export

import (
	"fmt"
	"strings"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatPDF):
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a dataset into encoded bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// Exporter dispatches to the renderer registered for each format.
type Exporter struct {
	renderers map[Format]Renderer
}

// NewExporter wires the CSV and PDF renderers.
func NewExporter() *Exporter {
	return &Exporter{renderers: map[Format]Renderer{
		FormatCSV: NewCSVExporter(),
		FormatPDF: NewPDFExporter(),
	}}
}

// Render encodes data in the requested format.
func (e *Exporter) Render(format Format, data Dataset) ([]byte, error) {
	r, ok := e.renderers[format]
	if !ok {
		return nil, fmt.Errorf("no renderer for format %q", format)
	}
	return r.Render(data)
}
