// Package render turns an aggregated download report into its output
// representations: terminal text, markdown, machine formats, and an
// interactive chart page.
package render

import (
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

// Format names an output representation.
type Format string

// Supported output formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatPlot     Format = "plot"
)

// Formats lists every supported format, for flag help and validation.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatJSON, FormatYAML, FormatPlot}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	for _, format := range Formats() {
		if string(format) == name {
			return format, nil
		}
	}

	return "", fmt.Errorf("unknown format %q (supported: text, markdown, json, yaml, plot)", name)
}

// Write renders the report in the given format.
func Write(w io.Writer, report *aggregate.Report, format Format) error {
	switch format {
	case FormatText:
		return WriteText(w, report)
	case FormatMarkdown:
		return WriteMarkdown(w, report)
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatYAML:
		return WriteYAML(w, report)
	case FormatPlot:
		return WriteChartPage(w, report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
