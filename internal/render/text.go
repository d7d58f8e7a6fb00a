package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

// topArtifactsLimit bounds the ranked list in human-readable output. Machine
// formats carry the full list.
const topArtifactsLimit = 10

const timestampLayout = "2006-01-02 15:04:05 MST"

// WriteText renders the report for terminal consumption: a summary header,
// per-platform breakdown, the ranked artifact table, and any collection
// errors.
func WriteText(w io.Writer, report *aggregate.Report) error {
	color.New(color.FgCyan, color.Bold).Fprintln(w, "Download Report")

	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "Generated: %s\n", report.GeneratedAt.Format(timestampLayout))
	}

	fmt.Fprintf(w, "Total downloads: %s\n", humanize.Comma(report.TotalDownloads))
	fmt.Fprintf(w, "Unique artifacts: %d across %d platform(s)\n", report.UniqueArtifacts, len(report.Platforms))
	fmt.Fprintln(w)

	if len(report.Platforms) > 0 {
		color.New(color.FgCyan).Fprintln(w, "Platforms")
		fmt.Fprintln(w, renderPlatformTable(report, false))
		fmt.Fprintln(w)
	}

	if len(report.TopArtifacts) > 0 {
		color.New(color.FgCyan).Fprintln(w, "Top Artifacts")
		fmt.Fprintln(w, renderTopTable(report, false))
		fmt.Fprintln(w)
	}

	writeErrorsText(w, report)

	return nil
}

func writeErrorsText(w io.Writer, report *aggregate.Report) {
	if len(report.Errors) == 0 {
		return
	}

	color.New(color.FgRed).Fprintf(w, "Errors (%d)\n", len(report.Errors))

	for _, collErr := range report.Errors {
		fmt.Fprintf(w, "  - %s/%s: %s\n", collErr.Platform, collErr.ArtifactName, collErr.Message)
	}
}

// renderPlatformTable builds the per-platform breakdown table. Rows follow
// the report's first-seen platform order.
func renderPlatformTable(report *aggregate.Report, markdown bool) string {
	tbl := newTable(markdown)
	tbl.AppendHeader(table.Row{"Platform", "Downloads", "Artifacts"})

	for _, platform := range report.Platforms {
		stats := report.PlatformBreakdown[platform]
		tbl.AppendRow(table.Row{platform, humanize.Comma(stats.TotalDownloads), stats.UniqueArtifacts})
	}

	if markdown {
		return tbl.RenderMarkdown()
	}

	return tbl.Render()
}

// renderTopTable builds the ranked artifact table, bounded to the display
// limit.
func renderTopTable(report *aggregate.Report, markdown bool) string {
	tbl := newTable(markdown)
	tbl.AppendHeader(table.Row{"#", "Artifact", "Platform", "Downloads"})

	top := report.TopArtifacts
	if len(top) > topArtifactsLimit {
		top = top[:topArtifactsLimit]
	}

	for i, artifact := range top {
		tbl.AppendRow(table.Row{i + 1, artifact.Name, artifact.Platform, humanize.Comma(artifact.Downloads)})
	}

	if markdown {
		return tbl.RenderMarkdown()
	}

	return tbl.Render()
}

func newTable(markdown bool) table.Writer {
	tbl := table.NewWriter()

	if !markdown {
		tbl.SetStyle(table.StyleLight)
		tbl.Style().Options.SeparateRows = false
	}

	return tbl
}
