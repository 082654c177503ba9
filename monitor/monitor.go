package monitor

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/proxy-pulse/internal/format"
	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
	"gitlab.com/tinyland/lab/proxy-pulse/transport"
	"gitlab.com/tinyland/lab/proxy-pulse/wire"
)

// Backend API paths per engine dialect.
const (
	clashTrafficPath     = "/traffic"
	clashMemoryPath      = "/memory"
	clashConnectionsPath = "/connections"
	surgeTrafficPath     = "/v1/traffic"
	surgeRequestsPath    = "/v1/requests"
)

const (
	// DefaultRetryWait is the delay before a failed push channel
	// reconnects.
	DefaultRetryWait = 3 * time.Second
	// DefaultPollInterval is the period of the poll-transport cycle.
	DefaultPollInterval = 1 * time.Second
	// DefaultRecentCap bounds the most-recent-connections descriptor list.
	DefaultRecentCap = 10

	// subscriberBuffer is the per-subscriber snapshot queue. A consumer
	// that falls behind misses intermediate snapshots rather than
	// blocking a channel's update path.
	subscriberBuffer = 8
)

// Options configures a Monitor. The zero value is usable: production
// transports, the system clock, and a discard logger.
type Options struct {
	Logger       *slog.Logger
	Clock        Clock
	Dialer       transport.Dialer
	Getter       transport.Getter
	RetryWait    time.Duration
	PollInterval time.Duration
	HistoryCap   int
	RecentCap    int
}

// Monitor is the single entry point consumers use. It hides per-channel
// and per-engine complexity, gates all scheduling on the session flags,
// and publishes merged snapshots whenever any channel update completes.
type Monitor struct {
	logger       *slog.Logger
	clock        Clock
	dialer       transport.Dialer
	getter       transport.Getter
	retryWait    time.Duration
	pollInterval time.Duration
	recentCap    int

	gates *gates

	mu          sync.Mutex
	profile     *Profile
	controllers []controller

	smoother         *telemetry.Smoother
	speedHist        *telemetry.History[telemetry.SpeedSample]
	memHist          *telemetry.History[telemetry.MemorySample]
	upRate, downRate float64
	totals           telemetry.Totals
	conns            []telemetry.ConnectionRecord
	recent           []string
	memAvailable     bool
	memInUse         float64
	taken            time.Time

	subsMu sync.Mutex
	subs   []chan telemetry.Snapshot
}

// New creates a Monitor. Nil or zero Options fields fall back to
// production defaults.
func New(opts Options) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &transport.WebsocketDialer{}
	}
	getter := opts.Getter
	if getter == nil {
		getter = &transport.RESTGetter{}
	}
	retryWait := opts.RetryWait
	if retryWait <= 0 {
		retryWait = DefaultRetryWait
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	historyCap := opts.HistoryCap
	if historyCap <= 0 {
		historyCap = telemetry.DefaultHistoryCap
	}
	recentCap := opts.RecentCap
	if recentCap <= 0 {
		recentCap = DefaultRecentCap
	}

	return &Monitor{
		logger:       logger,
		clock:        clock,
		dialer:       dialer,
		getter:       getter,
		retryWait:    retryWait,
		pollInterval: pollInterval,
		recentCap:    recentCap,
		gates:        &gates{},
		smoother:     telemetry.NewSmoother(telemetry.DefaultAlpha),
		speedHist:    telemetry.NewHistory[telemetry.SpeedSample](historyCap),
		memHist:      telemetry.NewHistory[telemetry.MemorySample](historyCap),
	}
}

// StartMonitoring opens the channel set for the given profile. It is
// idempotent: while a session is running, further calls are no-ops. The
// channel set depends on the engine: REST-only engines get traffic and
// connections pollers plus a synthesized not-applicable memory state;
// push engines get traffic and connections streams, and a memory stream
// unless the engine lacks memory introspection. A channel whose URL
// cannot be built is skipped; the others still proceed.
func (m *Monitor) StartMonitoring(p Profile) error {
	m.mu.Lock()
	if m.profile != nil {
		m.mu.Unlock()
		return nil
	}
	if err := p.validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.profile = &p
	m.memAvailable = p.Engine == EngineClash
	m.mu.Unlock()

	m.gates.setMonitoring(true)
	m.gates.setViewActive(true)

	var ctrls []controller
	if p.Engine == EngineSurge {
		ctrls = append(ctrls, m.buildPoll(p, ChannelTraffic, surgeTrafficPath, m.applySurgeTraffic)...)
		ctrls = append(ctrls, m.buildPoll(p, ChannelConnections, surgeRequestsPath, m.applySurgeRequests)...)
	} else {
		ctrls = append(ctrls, m.buildPush(p, ChannelTraffic, clashTrafficPath, m.applyTraffic)...)
		ctrls = append(ctrls, m.buildPush(p, ChannelConnections, clashConnectionsPath, m.applyConnections)...)
		if p.Engine != EngineClashPremium {
			ctrls = append(ctrls, m.buildPush(p, ChannelMemory, clashMemoryPath, m.applyMemory)...)
		}
	}

	m.mu.Lock()
	m.controllers = ctrls
	m.mu.Unlock()

	m.logger.Info("monitoring started",
		"engine", p.Engine.String(),
		"backend", p.hostPort(),
		"channels", len(ctrls),
	)

	for _, c := range ctrls {
		c.start()
	}
	m.publish()
	return nil
}

// buildPush returns a one-element slice, or none when the channel's URL
// cannot be built; a bad URL is fatal to that channel only.
func (m *Monitor) buildPush(p Profile, kind ChannelKind, path string, handle handleFunc) []controller {
	url, err := p.streamURL(path)
	if err != nil {
		m.logger.Error("channel skipped", "channel", kind.String(), "error", err)
		return nil
	}
	return []controller{
		newPushChannel(kind, url, p.streamHeader(), m.dialer, m.clock, m.gates, m.logger, m.retryWait, handle),
	}
}

func (m *Monitor) buildPoll(p Profile, kind ChannelKind, path string, handle handleFunc) []controller {
	url, err := p.pollURL(path)
	if err != nil {
		m.logger.Error("channel skipped", "channel", kind.String(), "error", err)
		return nil
	}
	return []controller{
		newPollChannel(kind, url, p.pollHeader(), m.getter, m.clock, m.gates, m.logger, m.pollInterval, handle),
	}
}

// PauseMonitoring suspends delivery. Push transports stay connected so
// resuming is fast, but no retry or poll tick fires while paused.
func (m *Monitor) PauseMonitoring() {
	m.gates.setViewActive(false)
	for _, c := range m.currentControllers() {
		c.pause()
	}
	m.logger.Debug("monitoring paused")
}

// ResumeMonitoring reopens the view gate and re-arms any channel that is
// not already open.
func (m *Monitor) ResumeMonitoring() {
	m.gates.setViewActive(true)
	for _, c := range m.currentControllers() {
		c.resume()
	}
	m.logger.Debug("monitoring resumed")
}

// StopMonitoring unconditionally stops every channel, clears the
// connected flags, and drops the profile reference. Safe to call even if
// monitoring was never started.
func (m *Monitor) StopMonitoring() {
	m.gates.setMonitoring(false)

	m.mu.Lock()
	ctrls := m.controllers
	m.controllers = nil
	m.profile = nil
	m.mu.Unlock()

	for _, c := range ctrls {
		c.stop()
	}
	if len(ctrls) > 0 {
		m.logger.Info("monitoring stopped")
	}
	m.publish()
}

// ResetRealtimeData clears the instantaneous series (speed and memory
// history, smoothing state) while preserving cumulative totals. Used
// when a view is revisited.
func (m *Monitor) ResetRealtimeData() {
	m.mu.Lock()
	m.speedHist.Clear()
	m.memHist.Clear()
	m.smoother.Reset()
	m.upRate, m.downRate = 0, 0
	m.memInUse = 0
	m.mu.Unlock()
	m.publish()
}

// ResetData clears everything including cumulative totals and the
// connection log. Used when switching profiles.
func (m *Monitor) ResetData() {
	m.mu.Lock()
	m.speedHist.Clear()
	m.memHist.Clear()
	m.smoother.Reset()
	m.upRate, m.downRate = 0, 0
	m.memInUse = 0
	m.totals = telemetry.Totals{}
	m.conns = nil
	m.recent = nil
	m.mu.Unlock()
	m.publish()
}

// Subscribe registers a snapshot consumer. The returned channel receives
// an immutable snapshot after every channel update; slow consumers drop
// intermediate snapshots instead of blocking the update path.
func (m *Monitor) Subscribe() <-chan telemetry.Snapshot {
	ch := make(chan telemetry.Snapshot, subscriberBuffer)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

// Unsubscribe removes a consumer registered with Subscribe and closes
// its channel.
func (m *Monitor) Unsubscribe(ch <-chan telemetry.Snapshot) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for i, sub := range m.subs {
		if sub == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Current assembles the consumer-visible snapshot from the latest state
// of every channel.
func (m *Monitor) Current() telemetry.Snapshot {
	m.mu.Lock()
	snap := telemetry.Snapshot{
		Taken:           m.taken,
		UpRate:          m.upRate,
		DownRate:        m.downRate,
		UpRateText:      format.Rate(m.upRate),
		DownRateText:    format.Rate(m.downRate),
		Totals:          m.totals,
		MemoryAvailable: m.memAvailable,
		MemoryInUse:     m.memInUse,
		Connections:     append([]telemetry.ConnectionRecord(nil), m.conns...),
		Recent:          append([]string(nil), m.recent...),
		SpeedHistory:    m.speedHist.Items(),
		MemoryHistory:   m.memHist.Items(),
	}
	if m.memAvailable {
		snap.MemoryText = format.Bytes(m.memInUse)
	} else {
		snap.MemoryText = telemetry.MemoryNotApplicable
	}
	m.mu.Unlock()

	for _, c := range m.currentControllers() {
		on := c.connected()
		switch c.kind() {
		case ChannelTraffic:
			snap.TrafficConnected = on
		case ChannelMemory:
			snap.MemoryConnected = on
		case ChannelConnections:
			snap.ConnectionsConnected = on
		}
	}
	return snap
}

func (m *Monitor) currentControllers() []controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]controller(nil), m.controllers...)
}

// publish fans the current snapshot out to all subscribers without
// blocking.
func (m *Monitor) publish() {
	snap := m.Current()
	m.subsMu.Lock()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	m.subsMu.Unlock()
}

// applyTraffic handles one push traffic delta.
func (m *Monitor) applyTraffic(data []byte) error {
	up, down, err := wire.DecodeTraffic(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	sup, sdown := m.smoother.Apply(up, down)
	m.upRate, m.downRate = sup, sdown
	m.speedHist.Push(telemetry.SpeedSample{Time: m.clock.Now(), Up: sup, Down: sdown})
	m.taken = m.clock.Now()
	m.mu.Unlock()

	m.publish()
	return nil
}

// applyMemory handles one push memory sample.
func (m *Monitor) applyMemory(data []byte) error {
	inuse, err := wire.DecodeMemory(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.memInUse = inuse
	m.memHist.Push(telemetry.MemorySample{Time: m.clock.Now(), InUse: inuse})
	m.taken = m.clock.Now()
	m.mu.Unlock()

	m.publish()
	return nil
}

// applyConnections wholesale-replaces the connection set from one push
// connections payload.
func (m *Monitor) applyConnections(data []byte) error {
	update, err := wire.DecodeConnections(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.conns = update.Connections
	m.totals = update.Totals()
	m.recent = recentDescriptors(update.Connections, m.recentCap)
	m.taken = m.clock.Now()
	m.mu.Unlock()

	m.publish()
	return nil
}

// applySurgeTraffic handles one polled interface-counter payload. The
// REST-only engine carries cumulative totals here rather than in its
// connections feed.
func (m *Monitor) applySurgeTraffic(data []byte) error {
	st, err := wire.DecodeSurgeTraffic(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	sup, sdown := m.smoother.Apply(st.UpRate, st.DownRate)
	m.upRate, m.downRate = sup, sdown
	m.speedHist.Push(telemetry.SpeedSample{Time: m.clock.Now(), Up: sup, Down: sdown})
	m.totals.Upload = st.UploadTotal
	m.totals.Download = st.DownloadTotal
	m.taken = m.clock.Now()
	m.mu.Unlock()

	m.publish()
	return nil
}

// applySurgeRequests wholesale-replaces the connection set from one
// polled request-log payload.
func (m *Monitor) applySurgeRequests(data []byte) error {
	records, err := wire.DecodeSurgeRequests(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.conns = records
	m.totals.Active = len(records)
	m.recent = recentDescriptors(records, m.recentCap)
	m.taken = m.clock.Now()
	m.mu.Unlock()

	m.publish()
	return nil
}

// recentDescriptors returns descriptors of the most recently started
// flows, newest first, bounded by cap.
func recentDescriptors(records []telemetry.ConnectionRecord, capacity int) []string {
	sorted := append([]telemetry.ConnectionRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.After(sorted[j].Start)
	})
	if len(sorted) > capacity {
		sorted = sorted[:capacity]
	}

	out := make([]string, 0, len(sorted))
	for _, r := range sorted {
		desc := r.Host
		if desc == "" {
			desc = r.DestinationIP
		}
		if r.DestinationPort != "" {
			desc += ":" + r.DestinationPort
		}
		out = append(out, desc)
	}
	return out
}
