package tui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
)

// fakeSession records gate calls and serves a canned snapshot.
type fakeSession struct {
	mu          sync.Mutex
	ch          chan telemetry.Snapshot
	snap        telemetry.Snapshot
	pauses      int
	resumes     int
	resets      int
	unsubscribe int
}

func newFakeSession(snap telemetry.Snapshot) *fakeSession {
	return &fakeSession{
		ch:   make(chan telemetry.Snapshot, 4),
		snap: snap,
	}
}

func (f *fakeSession) Subscribe() <-chan telemetry.Snapshot { return f.ch }

func (f *fakeSession) Unsubscribe(<-chan telemetry.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribe++
}

func (f *fakeSession) Current() telemetry.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) PauseMonitoring() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeSession) ResumeMonitoring() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
}

func (f *fakeSession) ResetRealtimeData() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.snap = telemetry.Snapshot{MemoryText: f.snap.MemoryText}
}

func (f *fakeSession) counts() (pauses, resumes, resets, unsubs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses, f.resumes, f.resets, f.unsubscribe
}

// isQuitCmd executes a tea.Cmd and returns true if it produces a tea.QuitMsg.
func isQuitCmd(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func sampleSnapshot() telemetry.Snapshot {
	return telemetry.Snapshot{
		Taken:           time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		UpRate:          2048,
		DownRate:        4096,
		UpRateText:      "2.0 KB/s",
		DownRateText:    "4.0 KB/s",
		Totals:          telemetry.Totals{Upload: 1 << 20, Download: 5 << 20, Active: 2},
		MemoryAvailable: true,
		MemoryInUse:     64 << 20,
		MemoryText:      "64.00 MB",
		Connections: []telemetry.ConnectionRecord{
			{
				Host:            "example.com",
				DestinationPort: "443",
				Network:         "tcp",
				Chains:          []string{"DIRECT"},
				UpSpeed:         100,
				DownSpeed:       200,
			},
			{
				DestinationIP:   "10.0.0.9",
				DestinationPort: "8080",
				Network:         "udp",
			},
		},
		Recent: []string{"example.com:443", "10.0.0.9:8080"},
		SpeedHistory: []telemetry.SpeedSample{
			{Up: 0, Down: 0},
			{Up: 1024, Down: 2048},
			{Up: 2048, Down: 4096},
		},
		MemoryHistory: []telemetry.MemorySample{
			{InUse: 32 << 20},
			{InUse: 64 << 20},
		},
		TrafficConnected:     true,
		ConnectionsConnected: true,
		MemoryConnected:      true,
	}
}

func sizedModel(t *testing.T, session Session) Model {
	t.Helper()
	m := NewModel(session)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func TestNewModelStartsOnTraffic(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := NewModel(session)

	if m.activeTab != TabTraffic {
		t.Errorf("expected activeTab TabTraffic, got %d", m.activeTab)
	}
	if m.ready {
		t.Error("expected ready to be false before the first resize")
	}
	if m.snap.UpRateText != "2.0 KB/s" {
		t.Errorf("expected initial snapshot from Current(), got %q", m.snap.UpRateText)
	}
}

func TestModelQuitUnsubscribes(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !isQuitCmd(cmd) {
		t.Error("expected 'q' to produce tea.Quit")
	}
	if _, _, _, unsubs := session.counts(); unsubs != 1 {
		t.Errorf("expected 1 unsubscribe, got %d", unsubs)
	}
}

func TestModelTabCycling(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.activeTab != TabConnections {
		t.Errorf("after tab: got %d, want TabConnections", m.activeTab)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.activeTab != TabMemory {
		t.Errorf("after second tab: got %d, want TabMemory", m.activeTab)
	}

	// Wraps back to the first tab.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.activeTab != TabTraffic {
		t.Errorf("after third tab: got %d, want TabTraffic", m.activeTab)
	}

	// Shift+tab wraps backwards.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = updated.(Model)
	if m.activeTab != TabMemory {
		t.Errorf("after shift+tab: got %d, want TabMemory", m.activeTab)
	}
}

func TestModelDirectTabKeys(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	m = updated.(Model)
	if m.activeTab != TabConnections {
		t.Errorf("after '2': got %d, want TabConnections", m.activeTab)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	m = updated.(Model)
	if m.activeTab != TabMemory {
		t.Errorf("after '3': got %d, want TabMemory", m.activeTab)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	m = updated.(Model)
	if m.activeTab != TabTraffic {
		t.Errorf("after '1': got %d, want TabTraffic", m.activeTab)
	}
}

func TestModelPauseToggleDrivesSession(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)
	if !m.paused {
		t.Error("expected paused after first toggle")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)
	if m.paused {
		t.Error("expected resumed after second toggle")
	}

	pauses, resumes, _, _ := session.counts()
	if pauses != 1 || resumes != 1 {
		t.Errorf("expected 1 pause and 1 resume, got %d/%d", pauses, resumes)
	}
}

func TestModelBlurPausesFocusResumes(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	updated, _ := m.Update(tea.BlurMsg{})
	m = updated.(Model)
	updated, _ = m.Update(tea.FocusMsg{})
	m = updated.(Model)

	pauses, resumes, _, _ := session.counts()
	if pauses != 1 || resumes != 1 {
		t.Errorf("expected 1 pause and 1 resume, got %d/%d", pauses, resumes)
	}
}

func TestModelFocusRespectsUserPause(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)
	updated, _ = m.Update(tea.BlurMsg{})
	m = updated.(Model)
	updated, _ = m.Update(tea.FocusMsg{})
	m = updated.(Model)

	if !m.paused {
		t.Error("expected model to stay paused across focus changes")
	}
	if _, resumes, _, _ := session.counts(); resumes != 0 {
		t.Errorf("expected no resume while user-paused, got %d", resumes)
	}
}

func TestModelResetRefreshesSnapshot(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(Model)

	if _, _, resets, _ := session.counts(); resets != 1 {
		t.Errorf("expected 1 reset, got %d", resets)
	}
	if m.snap.UpRate != 0 {
		t.Errorf("expected refreshed snapshot after reset, got UpRate %v", m.snap.UpRate)
	}
}

func TestModelSnapshotMsgRearmsWait(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	next := sampleSnapshot()
	next.UpRateText = "9.0 KB/s"

	updated, cmd := m.Update(snapshotMsg(next))
	m = updated.(Model)
	if m.snap.UpRateText != "9.0 KB/s" {
		t.Errorf("expected snapshot applied, got %q", m.snap.UpRateText)
	}
	if cmd == nil {
		t.Fatal("expected a re-armed wait command")
	}

	// The returned command must deliver the next channel value.
	session.ch <- next
	msg := cmd()
	got, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("expected snapshotMsg, got %T", msg)
	}
	if got.UpRateText != "9.0 KB/s" {
		t.Errorf("expected channel snapshot, got %q", got.UpRateText)
	}
}

func TestModelViewBeforeReady(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := NewModel(session)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before resize = %q", got)
	}
}

func TestModelViewTrafficTab(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)

	view := m.View()
	for _, want := range []string{"Throughput", "2.0 KB/s", "4.0 KB/s", "Session Totals", "1.00 MB", "5.00 MB"} {
		if !strings.Contains(view, want) {
			t.Errorf("traffic view missing %q", want)
		}
	}
}

func TestModelViewConnectionsTab(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"Active Connections (2)", "example.com:443", "10.0.0.9:8080", "DIRECT", "Recent"} {
		if !strings.Contains(view, want) {
			t.Errorf("connections view missing %q", want)
		}
	}
}

func TestModelViewMemoryTab(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	m = updated.(Model)

	if view := m.View(); !strings.Contains(view, "64.00 MB") {
		t.Errorf("memory view missing in-use value: %q", view)
	}
}

func TestModelViewMemoryUnsupported(t *testing.T) {
	snap := sampleSnapshot()
	snap.MemoryAvailable = false
	snap.MemoryText = telemetry.MemoryNotApplicable
	snap.MemoryHistory = nil
	session := newFakeSession(snap)

	m := sizedModel(t, session)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, telemetry.MemoryNotApplicable) {
		t.Errorf("expected not-applicable sentinel in view: %q", view)
	}
	if !strings.Contains(view, "does not report memory") {
		t.Errorf("expected unsupported notice in view: %q", view)
	}
}

func TestModelFooterShowsRelativeUpdateTime(t *testing.T) {
	snap := sampleSnapshot()
	snap.Taken = time.Now().Add(-30 * time.Second)
	session := newFakeSession(snap)
	m := sizedModel(t, session)

	if view := m.View(); !strings.Contains(view, "Updated: 30s ago") {
		t.Errorf("footer missing relative update stamp: %q", view)
	}
}

func TestModelViewPausedBadge(t *testing.T) {
	session := newFakeSession(sampleSnapshot())
	m := sizedModel(t, session)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)

	if view := m.View(); !strings.Contains(view, "PAUSED") {
		t.Errorf("expected paused badge in view")
	}
}
