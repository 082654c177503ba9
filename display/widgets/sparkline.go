package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks contains 8 unicode block characters for sparkline rendering,
// ordered from lowest to highest.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig controls the appearance of a throughput sparkline.
type SparklineConfig struct {
	// Data points to render, oldest first.
	Data []float64
	// Width is the number of characters to render. If 0, uses len(Data).
	Width int
	// Max is the upper bound for scaling. If 0, the series maximum is
	// used. The lower bound is always zero: throughput and memory are
	// non-negative, and a zero floor keeps idle periods visually flat.
	Max float64
	// Color is applied to the sparkline characters when set.
	Color lipgloss.Color
}

// RenderSparkline renders a unicode sparkline from the given configuration.
func RenderSparkline(cfg SparklineConfig) string {
	if len(cfg.Data) == 0 {
		return ""
	}

	data := cfg.Data
	width := cfg.Width
	if width <= 0 {
		width = len(data)
	}
	if width < len(data) {
		data = data[len(data)-width:]
	}

	maxVal := cfg.Max
	if maxVal <= 0 {
		for _, v := range data {
			if v > maxVal {
				maxVal = v
			}
		}
	}

	runes := make([]rune, 0, len(data))
	for _, v := range data {
		if maxVal <= 0 {
			// Entire window is idle.
			runes = append(runes, sparkBlocks[0])
			continue
		}
		ratio := v / maxVal
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		idx := int(ratio * float64(len(sparkBlocks)-1))
		runes = append(runes, sparkBlocks[idx])
	}

	spark := string(runes)
	if width > len(data) {
		// Left-pad so the newest sample stays pinned to the right edge.
		spark = strings.Repeat(" ", width-len(data)) + spark
	}

	if cfg.Color != "" {
		spark = lipgloss.NewStyle().Foreground(cfg.Color).Render(spark)
	}
	return spark
}
