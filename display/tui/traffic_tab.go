package tui

import (
	"strings"

	"gitlab.com/tinyland/lab/proxy-pulse/display/widgets"
	"gitlab.com/tinyland/lab/proxy-pulse/internal/format"
	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
)

// renderTrafficContent renders the traffic tab: smoothed throughput,
// cumulative totals, and upload/download sparklines over the retained
// history window.
func renderTrafficContent(snap telemetry.Snapshot, width, height int) string {
	var sections []string

	sections = append(sections, styleTitle.Render("Throughput"))
	sections = append(sections, "")

	sections = append(sections,
		styleLabel.Render("Upload   ")+styleValue.Render(snap.UpRateText))
	sections = append(sections,
		styleLabel.Render("Download ")+styleValue.Render(snap.DownRateText))
	sections = append(sections, "")

	chartWidth := width - 14
	if chartWidth < 10 {
		chartWidth = 10
	}
	if chartWidth > telemetry.DefaultHistoryCap {
		chartWidth = telemetry.DefaultHistoryCap
	}

	up, down := speedSeries(snap.SpeedHistory)
	sections = append(sections,
		styleLabel.Render("up   ")+widgets.RenderSparkline(widgets.SparklineConfig{
			Data:  up,
			Width: chartWidth,
			Color: colorUpload,
		}))
	sections = append(sections,
		styleLabel.Render("down ")+widgets.RenderSparkline(widgets.SparklineConfig{
			Data:  down,
			Width: chartWidth,
			Color: colorDownload,
		}))
	sections = append(sections, "")

	sections = append(sections, styleTitle.Render("Session Totals"))
	sections = append(sections, "")
	sections = append(sections,
		styleLabel.Render("Uploaded   ")+styleValue.Render(format.Bytes(float64(snap.Totals.Upload))))
	sections = append(sections,
		styleLabel.Render("Downloaded ")+styleValue.Render(format.Bytes(float64(snap.Totals.Download))))

	return strings.Join(sections, "\n")
}

// speedSeries splits a speed history into parallel upload and download
// series, oldest first.
func speedSeries(history []telemetry.SpeedSample) (up, down []float64) {
	up = make([]float64, len(history))
	down = make([]float64, len(history))
	for i, s := range history {
		up[i] = s.Up
		down[i] = s.Down
	}
	return up, down
}
