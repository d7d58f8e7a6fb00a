package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

// README marker comments delimiting the managed report section.
const (
	MarkerStart = "<!-- pkgpulse:start -->"
	MarkerEnd   = "<!-- pkgpulse:end -->"
)

// ErrMarkersNotFound is returned when the target file lacks the managed
// section markers. The file is left untouched.
var ErrMarkersNotFound = errors.New("readme markers not found: add " + MarkerStart + " and " + MarkerEnd)

const readmeFileMode = 0o644

// PatchReadme replaces the marker-delimited section of the file at path with
// the report rendered as markdown. Content outside the markers is preserved
// byte for byte.
func PatchReadme(path string, report *aggregate.Report) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read readme: %w", err)
	}

	var section bytes.Buffer

	renderErr := WriteMarkdown(&section, report)
	if renderErr != nil {
		return renderErr
	}

	patched, err := spliceSection(content, section.Bytes())
	if err != nil {
		return err
	}

	writeErr := os.WriteFile(path, patched, readmeFileMode)
	if writeErr != nil {
		return fmt.Errorf("write readme: %w", writeErr)
	}

	return nil
}

// spliceSection swaps the bytes between the markers for the rendered section,
// keeping the markers themselves in place.
func spliceSection(content, section []byte) ([]byte, error) {
	start := bytes.Index(content, []byte(MarkerStart))
	if start < 0 {
		return nil, ErrMarkersNotFound
	}

	rest := content[start:]

	end := bytes.Index(rest, []byte(MarkerEnd))
	if end < 0 {
		return nil, ErrMarkersNotFound
	}

	var out bytes.Buffer

	out.Write(content[:start])
	out.WriteString(MarkerStart)
	out.WriteString("\n")
	out.Write(section)
	out.Write(rest[end:])

	return out.Bytes(), nil
}
