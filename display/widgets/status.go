// Package widgets provides small reusable render helpers for the
// dashboard: sparklines and channel status indicators. All widgets
// return plain strings styled with lipgloss.
package widgets

import "github.com/charmbracelet/lipgloss"

// ChannelState represents the connectivity of one metric channel.
type ChannelState int

const (
	// ChannelConnected means the channel has a live stream or its last
	// poll succeeded.
	ChannelConnected ChannelState = iota
	// ChannelDisconnected means the channel is down or between retries.
	ChannelDisconnected
	// ChannelPaused means monitoring is gated off by the user.
	ChannelPaused
	// ChannelUnsupported means the backend engine has no such channel.
	ChannelUnsupported
)

var channelIcons = map[ChannelState]string{
	ChannelConnected:    "●", // ●
	ChannelDisconnected: "●", // ●
	ChannelPaused:       "◌", // ◌
	ChannelUnsupported:  "○", // ○
}

var channelColors = map[ChannelState]lipgloss.Color{
	ChannelConnected:    lipgloss.Color("#22C55E"),
	ChannelDisconnected: lipgloss.Color("#EF4444"),
	ChannelPaused:       lipgloss.Color("#EAB308"),
	ChannelUnsupported:  lipgloss.Color("#6B7280"),
}

// RenderChannelStatus renders a colored indicator dot followed by the
// channel label.
func RenderChannelStatus(state ChannelState, label string) string {
	icon, ok := channelIcons[state]
	if !ok {
		icon = channelIcons[ChannelUnsupported]
	}
	color, ok := channelColors[state]
	if !ok {
		color = channelColors[ChannelUnsupported]
	}
	dot := lipgloss.NewStyle().Foreground(color).Render(icon)
	if label == "" {
		return dot
	}
	return dot + " " + label
}

// ChannelStateFor maps a connected flag and the monitoring gate to the
// indicator state shown in the header.
func ChannelStateFor(connected, paused bool) ChannelState {
	switch {
	case paused:
		return ChannelPaused
	case connected:
		return ChannelConnected
	default:
		return ChannelDisconnected
	}
}
