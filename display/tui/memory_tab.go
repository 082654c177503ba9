package tui

import (
	"strings"

	"gitlab.com/tinyland/lab/proxy-pulse/display/widgets"
	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
)

// renderMemoryContent renders the memory tab: current in-use memory and
// a sparkline over the retained history. Engines without memory
// introspection get a short notice instead.
func renderMemoryContent(snap telemetry.Snapshot, width, height int) string {
	var sections []string

	sections = append(sections, styleTitle.Render("Engine Memory"))
	sections = append(sections, "")

	if !snap.MemoryAvailable {
		sections = append(sections, styleLabel.Render("Memory usage: ")+styleValue.Render(snap.MemoryText))
		sections = append(sections, "")
		sections = append(sections,
			styleLabel.Render("This backend does not report memory usage."))
		return strings.Join(sections, "\n")
	}

	sections = append(sections,
		styleLabel.Render("In use ")+styleValue.Render(snap.MemoryText))
	sections = append(sections, "")

	chartWidth := width - 10
	if chartWidth < 10 {
		chartWidth = 10
	}
	if chartWidth > telemetry.DefaultHistoryCap {
		chartWidth = telemetry.DefaultHistoryCap
	}

	series := make([]float64, len(snap.MemoryHistory))
	for i, s := range snap.MemoryHistory {
		series[i] = s.InUse
	}
	sections = append(sections,
		styleLabel.Render("mem ")+widgets.RenderSparkline(widgets.SparklineConfig{
			Data:  series,
			Width: chartWidth,
			Color: colorMemory,
		}))

	return strings.Join(sections, "\n")
}
