package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

const (
	chartWidth  = "1100px"
	chartHeight = "500px"

	// chartBarLimit bounds the ranked bar chart so labels stay readable.
	chartBarLimit = 20

	xAxisLabelRotate = 45
)

// WriteChartPage renders the report as a self-contained HTML page with a
// ranked artifact bar chart and a platform share pie chart.
func WriteChartPage(w io.Writer, report *aggregate.Report) error {
	page := components.NewPage()
	page.SetLayout(components.PageCenterLayout)
	page.PageTitle = "pkgpulse download report"

	page.AddCharts(
		buildTopArtifactsBar(report),
		buildPlatformPie(report),
	)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}

	return nil
}

func buildTopArtifactsBar(report *aggregate.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Top Artifacts",
			Subtitle: subtitle(report),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: xAxisLabelRotate, Interval: "0"},
		}),
	)

	top := report.TopArtifacts
	if len(top) > chartBarLimit {
		top = top[:chartBarLimit]
	}

	labels := make([]string, len(top))
	data := make([]opts.BarData, len(top))

	for i, artifact := range top {
		labels[i] = artifact.Platform + "/" + artifact.Name
		data[i] = opts.BarData{Value: artifact.Downloads}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("Downloads", data)

	return bar
}

func buildPlatformPie(report *aggregate.Report) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Platform Share"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	data := make([]opts.PieData, 0, len(report.Platforms))

	for _, platform := range report.Platforms {
		stats := report.PlatformBreakdown[platform]
		data = append(data, opts.PieData{Name: platform, Value: stats.TotalDownloads})
	}

	pie.AddSeries("Downloads", data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}),
	)

	return pie
}

func subtitle(report *aggregate.Report) string {
	return fmt.Sprintf("%d artifacts, %d platforms", report.UniqueArtifacts, len(report.Platforms))
}
