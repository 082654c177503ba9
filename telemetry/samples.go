// Package telemetry defines the value types produced by the live metric
// channels and the smoothing/buffering primitives applied to them before
// they are surfaced to consumers.
package telemetry

import "time"

// SpeedSample is one traffic throughput measurement.
type SpeedSample struct {
	// Time records when the sample was taken.
	Time time.Time `json:"time"`
	// Up is the upload throughput in bytes per second.
	Up float64 `json:"up"`
	// Down is the download throughput in bytes per second.
	Down float64 `json:"down"`
}

// MemorySample is one engine memory usage measurement.
type MemorySample struct {
	// Time records when the sample was taken.
	Time time.Time `json:"time"`
	// InUse is the engine's in-use memory in bytes.
	InUse float64 `json:"inuse"`
}

// ConnectionRecord describes one active or recently-active network flow
// reported by the backend. Both connection wire schemas (basic and
// extended) normalize into this shape; optional fields absent from a
// payload are left as their zero values.
type ConnectionRecord struct {
	ID              string    `json:"id"`
	SourceIP        string    `json:"sourceIP"`
	SourcePort      string    `json:"sourcePort"`
	Host            string    `json:"host"`
	DestinationIP   string    `json:"destinationIP"`
	DestinationPort string    `json:"destinationPort"`
	Network         string    `json:"network"`
	Chains          []string  `json:"chains"`
	Rule            string    `json:"rule"`
	Upload          int64     `json:"upload"`
	Download        int64     `json:"download"`
	UpSpeed         float64   `json:"upSpeed"`
	DownSpeed       float64   `json:"downSpeed"`
	Alive           bool      `json:"alive"`
	Start           time.Time `json:"start"`
	ProcessPath     string    `json:"processPath,omitempty"`
	ProxyTag        string    `json:"proxyTag,omitempty"`
}

// Totals holds the cumulative counters derived from the latest
// connections update (or, for REST-only engines, from the dedicated
// counters in the traffic payload).
type Totals struct {
	Upload   int64 `json:"upload"`
	Download int64 `json:"download"`
	// Active is the connection count from the latest connections
	// update. It is never merged with older data.
	Active int `json:"active"`
}

// Snapshot is the consumer-visible state of a monitoring session. It is
// published as a value on every channel update; consumers must treat it
// as immutable.
type Snapshot struct {
	// Taken is the time of the update that produced this snapshot.
	Taken time.Time `json:"taken"`

	// UpRate and DownRate are the smoothed throughputs in bytes per second.
	UpRate   float64 `json:"upRate"`
	DownRate float64 `json:"downRate"`
	// UpRateText and DownRateText are the formatted equivalents.
	UpRateText   string `json:"upRateText"`
	DownRateText string `json:"downRateText"`

	Totals Totals `json:"totals"`

	// MemoryAvailable is false when the engine lacks memory
	// introspection; MemoryInUse is zero and MemoryText carries the
	// not-applicable sentinel in that case.
	MemoryAvailable bool    `json:"memoryAvailable"`
	MemoryInUse     float64 `json:"memoryInUse"`
	MemoryText      string  `json:"memoryText"`

	// Connections is the full record set from the latest connections
	// update. Recent holds descriptors of the most recently started
	// flows, newest first, bounded.
	Connections []ConnectionRecord `json:"connections"`
	Recent      []string           `json:"recent"`

	SpeedHistory  []SpeedSample  `json:"speedHistory"`
	MemoryHistory []MemorySample `json:"memoryHistory"`

	// Per-channel connected flags.
	TrafficConnected     bool `json:"trafficConnected"`
	MemoryConnected      bool `json:"memoryConnected"`
	ConnectionsConnected bool `json:"connectionsConnected"`
}

// MemoryNotApplicable is the sentinel MemoryText value published for
// engines without memory introspection.
const MemoryNotApplicable = "n/a"
