// Package tui implements the interactive terminal dashboard. It renders
// live monitoring snapshots in a tabbed Bubbletea application and drives
// the monitoring gates from user input and terminal focus.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/proxy-pulse/display/widgets"
	"gitlab.com/tinyland/lab/proxy-pulse/internal/format"
	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
)

// Session is the monitoring surface the dashboard drives. It is
// satisfied by *monitor.Monitor.
type Session interface {
	Subscribe() <-chan telemetry.Snapshot
	Unsubscribe(ch <-chan telemetry.Snapshot)
	Current() telemetry.Snapshot
	PauseMonitoring()
	ResumeMonitoring()
	ResetRealtimeData()
}

// Tab identifies which tab is currently active.
type Tab int

const (
	TabTraffic Tab = iota
	TabConnections
	TabMemory
	tabCount // sentinel for wrapping
)

// tabNames maps each Tab value to its display label.
var tabNames = map[Tab]string{
	TabTraffic:     "Traffic",
	TabConnections: "Connections",
	TabMemory:      "Memory",
}

// snapshotMsg carries one monitoring snapshot into the update loop.
type snapshotMsg telemetry.Snapshot

// Model is the top-level Bubbletea model for the proxy-pulse dashboard.
type Model struct {
	session Session
	updates <-chan telemetry.Snapshot

	snap      telemetry.Snapshot
	activeTab Tab
	width     int
	height    int
	paused    bool
	help      help.Model
	ready     bool
}

// NewModel returns an initialized Model subscribed to the session's
// snapshot stream, with TabTraffic active.
func NewModel(session Session) Model {
	return Model{
		session:   session,
		updates:   session.Subscribe(),
		snap:      session.Current(),
		activeTab: TabTraffic,
		help:      help.New(),
	}
}

// waitForSnapshot returns a command that blocks until the next snapshot
// arrives on the subscription channel.
func waitForSnapshot(ch <-chan telemetry.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

// Init implements tea.Model. It arms the first snapshot wait. Focus
// reporting is enabled by the program option at startup.
func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

// Update implements tea.Model. It handles key presses, focus changes,
// window resizes, and incoming snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.session.Unsubscribe(m.updates)
			return m, tea.Quit
		case key.Matches(msg, keys.NextTab):
			m.activeTab = (m.activeTab + 1) % tabCount
		case key.Matches(msg, keys.PrevTab):
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case key.Matches(msg, keys.Tab1):
			m.activeTab = TabTraffic
		case key.Matches(msg, keys.Tab2):
			m.activeTab = TabConnections
		case key.Matches(msg, keys.Tab3):
			m.activeTab = TabMemory
		case key.Matches(msg, keys.Pause):
			m = m.setPaused(!m.paused)
		case key.Matches(msg, keys.Reset):
			m.session.ResetRealtimeData()
			m.snap = m.session.Current()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.FocusMsg:
		// Regaining focus never overrides an explicit pause.
		if !m.paused {
			m.session.ResumeMonitoring()
		}

	case tea.BlurMsg:
		m.session.PauseMonitoring()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case snapshotMsg:
		m.snap = telemetry.Snapshot(msg)
		return m, waitForSnapshot(m.updates)
	}

	return m, nil
}

// setPaused toggles the user-visible pause state and forwards it to the
// monitoring session.
func (m Model) setPaused(paused bool) Model {
	m.paused = paused
	if paused {
		m.session.PauseMonitoring()
	} else {
		m.session.ResumeMonitoring()
	}
	return m
}

// View implements tea.Model. It renders the header, active tab content,
// and footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	content := m.renderTabContent()
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// renderHeader renders the tab bar, per-channel status dots, and the
// paused badge.
func (m Model) renderHeader() string {
	var tabs []string
	for i := Tab(0); i < tabCount; i++ {
		name := tabNames[i]
		if i == m.activeTab {
			tabs = append(tabs, styleActiveTab.Render(name))
		} else {
			tabs = append(tabs, styleInactiveTab.Render(name))
		}
	}

	status := m.renderStatusDots()
	if m.paused {
		status += "  " + stylePausedBadge.Render("PAUSED")
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return styleHeader.Width(m.width).Render(tabBar + "  " + status)
}

// renderStatusDots renders one connectivity indicator per channel.
func (m Model) renderStatusDots() string {
	traffic := widgets.RenderChannelStatus(
		widgets.ChannelStateFor(m.snap.TrafficConnected, m.paused), "traffic")
	conns := widgets.RenderChannelStatus(
		widgets.ChannelStateFor(m.snap.ConnectionsConnected, m.paused), "conns")

	var mem string
	if m.snap.MemoryAvailable {
		mem = widgets.RenderChannelStatus(
			widgets.ChannelStateFor(m.snap.MemoryConnected, m.paused), "memory")
	} else {
		mem = widgets.RenderChannelStatus(widgets.ChannelUnsupported, "memory")
	}

	return traffic + "  " + conns + "  " + mem
}

// renderTabContent delegates to the appropriate tab renderer based on
// the active tab.
func (m Model) renderTabContent() string {
	// Reserve space for header and footer (approximate).
	contentHeight := m.height - 6
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch m.activeTab {
	case TabTraffic:
		content = renderTrafficContent(m.snap, m.width, contentHeight)
	case TabConnections:
		content = renderConnectionsContent(m.snap, m.width, contentHeight)
	case TabMemory:
		content = renderMemoryContent(m.snap, m.width, contentHeight)
	default:
		content = ""
	}

	return styleContent.Width(m.width).Render(content)
}

// renderFooter renders the keybinding help and last updated timestamp.
func (m Model) renderFooter() string {
	line := m.help.View(keys)
	if !m.snap.Taken.IsZero() {
		line += fmt.Sprintf("  Updated: %s", format.TimeSince(m.snap.Taken))
	}
	return styleFooter.Width(m.width).Render(line)
}
