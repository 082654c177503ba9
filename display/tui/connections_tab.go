package tui

import (
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/proxy-pulse/internal/format"
	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
)

// renderConnectionsContent renders the connections tab: the active flow
// table and the recent-flows list.
func renderConnectionsContent(snap telemetry.Snapshot, width, height int) string {
	var sections []string

	title := fmt.Sprintf("Active Connections (%d)", snap.Totals.Active)
	sections = append(sections, styleTitle.Render(title))
	sections = append(sections, "")

	if len(snap.Connections) == 0 {
		sections = append(sections, styleLabel.Render("No active connections"))
	} else {
		hostWidth := width / 3
		if hostWidth < 16 {
			hostWidth = 16
		}

		header := fmt.Sprintf("%-*s %-5s %-14s %10s %10s",
			hostWidth, "HOST", "NET", "CHAIN", "UP", "DOWN")
		sections = append(sections, styleLabel.Render(header))

		// Leave room for the title, header, and recent section.
		rows := height - 8
		if rows < 3 {
			rows = 3
		}
		for i, c := range snap.Connections {
			if i >= rows {
				remaining := len(snap.Connections) - i
				sections = append(sections,
					styleLabel.Render(fmt.Sprintf("... and %d more", remaining)))
				break
			}
			sections = append(sections, renderConnectionRow(c, hostWidth))
		}
	}

	if len(snap.Recent) > 0 {
		sections = append(sections, "")
		sections = append(sections, styleTitle.Render("Recent"))
		for _, r := range snap.Recent {
			sections = append(sections, styleLabel.Render("  "+r))
		}
	}

	return strings.Join(sections, "\n")
}

// renderConnectionRow formats one flow as a fixed-width table row.
func renderConnectionRow(c telemetry.ConnectionRecord, hostWidth int) string {
	host := c.Host
	if host == "" {
		host = c.DestinationIP
	}
	if c.DestinationPort != "" {
		host = host + ":" + c.DestinationPort
	}
	host = format.TruncateWithEllipsis(host, hostWidth)

	chain := "-"
	if len(c.Chains) > 0 {
		chain = format.TruncateWithEllipsis(c.Chains[len(c.Chains)-1], 14)
	}

	return fmt.Sprintf("%-*s %-5s %-14s %10s %10s",
		hostWidth, host,
		c.Network,
		chain,
		format.Rate(c.UpSpeed),
		format.Rate(c.DownSpeed))
}
