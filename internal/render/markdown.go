package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

// WriteMarkdown renders the report as a markdown document, suitable for
// embedding into a README section.
func WriteMarkdown(w io.Writer, report *aggregate.Report) error {
	fmt.Fprintln(w, "## Download Report")
	fmt.Fprintln(w)

	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "Generated: %s\n\n", report.GeneratedAt.Format(timestampLayout))
	}

	fmt.Fprintf(w, "**Total downloads:** %s  \n", humanize.Comma(report.TotalDownloads))
	fmt.Fprintf(w, "**Unique artifacts:** %d across %d platform(s)\n", report.UniqueArtifacts, len(report.Platforms))
	fmt.Fprintln(w)

	if len(report.Platforms) > 0 {
		fmt.Fprintln(w, "### Platforms")
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderPlatformTable(report, true))
		fmt.Fprintln(w)
	}

	if len(report.TopArtifacts) > 0 {
		fmt.Fprintln(w, "### Top Artifacts")
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderTopTable(report, true))
		fmt.Fprintln(w)
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "### Errors (%d)\n\n", len(report.Errors))

		for _, collErr := range report.Errors {
			fmt.Fprintf(w, "- `%s/%s`: %s\n", collErr.Platform, collErr.ArtifactName, collErr.Message)
		}
	}

	return nil
}
