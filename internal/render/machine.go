package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

const yamlIndent = 2

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, report *aggregate.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(report)
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	return nil
}

// WriteYAML renders the report as YAML.
func WriteYAML(w io.Writer, report *aggregate.Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	err := encoder.Encode(report)
	if err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}

	closeErr := encoder.Close()
	if closeErr != nil {
		return fmt.Errorf("close yaml encoder: %w", closeErr)
	}

	return nil
}
