package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/proxy-pulse/transport"
)

// gates holds the session-wide flags every channel controller consults
// before scheduling a retry or poll tick. Pausing the view does not tear
// down push transports; it only stops controllers from arming timers.
type gates struct {
	mu         sync.Mutex
	monitoring bool
	viewActive bool
}

func (g *gates) setMonitoring(v bool) {
	g.mu.Lock()
	g.monitoring = v
	g.mu.Unlock()
}

func (g *gates) setViewActive(v bool) {
	g.mu.Lock()
	g.viewActive = v
	g.mu.Unlock()
}

// active reports whether controllers may schedule work.
func (g *gates) active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.monitoring && g.viewActive
}

// controller owns the lifecycle of exactly one metric channel. Lifecycle:
// idle, connecting, open (receive/decode loop), closed-retrying, back to
// connecting; stop() is terminal from any state.
type controller interface {
	start()
	pause()
	resume()
	stop()
	connected() bool
	kind() ChannelKind
}

// handleFunc decodes one payload and applies it to shared state. A
// returned error means the payload was malformed; the channel logs it
// and awaits the next message or tick.
type handleFunc func(data []byte) error

// pushChannel drives a persistent server-push stream. It issues no
// outbound messages; it reads, decodes, and immediately re-arms the
// receive. Transport errors mark it disconnected and schedule a retry
// after retryWait, but only while the session gates are open.
type pushChannel struct {
	chKind    ChannelKind
	url       string
	header    http.Header
	dialer    transport.Dialer
	clock     Clock
	gates     *gates
	logger    *slog.Logger
	handle    handleFunc
	retryWait time.Duration

	mu           sync.Mutex
	stream       transport.Stream
	isConnected  bool
	connecting   bool
	retryPending bool
	stopped      bool
}

func newPushChannel(kind ChannelKind, url string, header http.Header, dialer transport.Dialer,
	clock Clock, g *gates, logger *slog.Logger, retryWait time.Duration, handle handleFunc) *pushChannel {
	return &pushChannel{
		chKind:    kind,
		url:       url,
		header:    header,
		dialer:    dialer,
		clock:     clock,
		gates:     g,
		logger:    logger,
		handle:    handle,
		retryWait: retryWait,
	}
}

func (c *pushChannel) kind() ChannelKind { return c.chKind }

func (c *pushChannel) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

func (c *pushChannel) start() {
	go c.connect()
}

// pause keeps the transport open so resuming reconnects fast; the shared
// gates already stop any retry from being scheduled while paused.
func (c *pushChannel) pause() {}

// resume reopens the channel only if it is not already open, mid-dial,
// or awaiting a retry timer. At most one transport may exist per
// channel, so a connect already in flight wins over resume.
func (c *pushChannel) resume() {
	c.mu.Lock()
	if c.stopped || c.stream != nil || c.connecting || c.retryPending {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	go c.connect()
}

// stop tears down the transport and clears the connected flag
// unconditionally. Closing the stream unblocks a pending Read, so stop
// is safe to call from any state, including from inside the receive
// path, and no further retry will fire.
func (c *pushChannel) stop() {
	c.mu.Lock()
	c.stopped = true
	stream := c.stream
	c.stream = nil
	c.isConnected = false
	c.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
}

func (c *pushChannel) connect() {
	c.mu.Lock()
	if c.stopped || c.stream != nil || c.connecting {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.mu.Unlock()

	stream, err := c.dialer.Dial(context.Background(), c.url, c.header)
	if err != nil {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
		c.logger.Warn("channel connect failed",
			"channel", c.chKind.String(),
			"url", c.url,
			"error", err,
		)
		c.scheduleRetry()
		return
	}

	c.mu.Lock()
	c.connecting = false
	if c.stopped {
		c.mu.Unlock()
		_ = stream.Close()
		return
	}
	c.stream = stream
	c.isConnected = true
	c.mu.Unlock()

	c.logger.Info("channel connected", "channel", c.chKind.String())
	c.receiveLoop(stream)
}

// receiveLoop processes inbound messages sequentially, so per-channel
// order is preserved end to end.
func (c *pushChannel) receiveLoop(stream transport.Stream) {
	for {
		data, err := stream.Read()
		if err != nil {
			c.mu.Lock()
			wasStopped := c.stopped
			stale := c.stream != stream
			if !stale {
				c.stream = nil
				c.isConnected = false
			}
			c.mu.Unlock()

			// A stale stream erroring out must not disturb the
			// current transport or schedule a retry for it.
			if stale {
				return
			}

			if !wasStopped {
				c.logger.Warn("channel stream lost",
					"channel", c.chKind.String(),
					"error", err,
				)
				c.scheduleRetry()
			}
			return
		}

		if err := c.handle(data); err != nil {
			// Best effort per message: state is left untouched and the
			// next inbound message is awaited.
			c.logger.Warn("channel decode failed",
				"channel", c.chKind.String(),
				"error", err,
			)
		}
	}
}

// scheduleRetry arms a single reconnect timer. While the session is
// paused or stopped the channel stays dormant instead; resume() is the
// only way back. A timer that fires after stop() re-checks the gates and
// becomes a no-op.
func (c *pushChannel) scheduleRetry() {
	c.mu.Lock()
	if c.stopped || c.retryPending || !c.gates.active() {
		c.mu.Unlock()
		return
	}
	c.retryPending = true
	c.mu.Unlock()

	wait := c.clock.After(c.retryWait)
	go func() {
		<-wait

		c.mu.Lock()
		c.retryPending = false
		dead := c.stopped
		c.mu.Unlock()

		if dead || !c.gates.active() {
			return
		}
		c.connect()
	}()
}

// pollChannel drives a timer-based request/decode/update cycle for
// engines without a push transport. An immediate first fetch happens on
// arm so the consumer is never left empty for a full period. For poll
// channels pause is equivalent to stop, except that resume can re-arm.
type pollChannel struct {
	chKind   ChannelKind
	url      string
	header   http.Header
	getter   transport.Getter
	clock    Clock
	gates    *gates
	logger   *slog.Logger
	handle   handleFunc
	interval time.Duration

	mu          sync.Mutex
	armed       bool
	stopCh      chan struct{}
	isConnected bool
	stopped     bool
}

func newPollChannel(kind ChannelKind, url string, header http.Header, getter transport.Getter,
	clock Clock, g *gates, logger *slog.Logger, interval time.Duration, handle handleFunc) *pollChannel {
	return &pollChannel{
		chKind:   kind,
		url:      url,
		header:   header,
		getter:   getter,
		clock:    clock,
		gates:    g,
		logger:   logger,
		handle:   handle,
		interval: interval,
	}
}

func (c *pollChannel) kind() ChannelKind { return c.chKind }

func (c *pollChannel) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

func (c *pollChannel) start() {
	c.mu.Lock()
	if c.stopped || c.armed {
		c.mu.Unlock()
		return
	}
	c.armed = true
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	c.mu.Unlock()

	go c.pollLoop(stopCh)
}

func (c *pollChannel) pollLoop(stopCh chan struct{}) {
	// First fetch fires immediately on arm.
	if c.gates.active() {
		c.fetchOnce()
	}

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			if c.gates.active() {
				c.fetchOnce()
			}
		}
	}
}

// fetchOnce performs one request/decode/update cycle. Each tick runs to
// completion before the next is considered, so per-channel order holds.
func (c *pollChannel) fetchOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	data, err := c.getter.Get(ctx, c.url, c.header)
	if err != nil {
		c.mu.Lock()
		c.isConnected = false
		c.mu.Unlock()
		c.logger.Warn("channel poll failed",
			"channel", c.chKind.String(),
			"url", c.url,
			"error", err,
		)
		return
	}

	c.mu.Lock()
	c.isConnected = true
	c.mu.Unlock()

	if err := c.handle(data); err != nil {
		c.logger.Warn("channel decode failed",
			"channel", c.chKind.String(),
			"error", err,
		)
	}
}

// pause disarms the timer. The next resume re-arms it.
func (c *pollChannel) pause() {
	c.disarm()
}

// resume re-arms the timer only if it is not already armed.
func (c *pollChannel) resume() {
	c.start()
}

// stop disarms the timer and marks the channel terminally stopped.
func (c *pollChannel) stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.disarm()
}

func (c *pollChannel) disarm() {
	c.mu.Lock()
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.armed = false
	c.isConnected = false
	c.mu.Unlock()
}
