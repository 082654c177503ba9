package wire

import (
	"encoding/json"
	"fmt"
	"sort"

	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
)

// DecodeTraffic parses a push-transport traffic delta. The payload is a
// plain {"up", "down"} pair in bytes per second.
func DecodeTraffic(data []byte) (up, down float64, err error) {
	var msg struct {
		Up   *int64 `json:"up"`
		Down *int64 `json:"down"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, 0, fmt.Errorf("wire: traffic payload: %w", err)
	}
	if msg.Up == nil || msg.Down == nil {
		return 0, 0, fmt.Errorf("wire: traffic payload missing up/down fields")
	}
	return float64(*msg.Up), float64(*msg.Down), nil
}

// DecodeMemory parses a push-transport memory payload. Only the in-use
// figure is surfaced; the OS limit is ignored.
func DecodeMemory(data []byte) (float64, error) {
	var msg struct {
		InUse   *int64 `json:"inuse"`
		OSLimit int64  `json:"oslimit"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, fmt.Errorf("wire: memory payload: %w", err)
	}
	if msg.InUse == nil {
		return 0, fmt.Errorf("wire: memory payload missing inuse field")
	}
	return float64(*msg.InUse), nil
}

// SurgeTraffic is the decoded form of the REST-only engine's traffic
// payload: instantaneous speeds plus the cumulative counters that stand
// in for connection totals on that engine.
type SurgeTraffic struct {
	Interface     string
	UpRate        float64
	DownRate      float64
	UploadTotal   int64
	DownloadTotal int64
}

// surgeCounter is one per-interface (or per-connector) counter block.
type surgeCounter struct {
	In              int64   `json:"in"`
	Out             int64   `json:"out"`
	InCurrentSpeed  float64 `json:"inCurrentSpeed"`
	OutCurrentSpeed float64 `json:"outCurrentSpeed"`
}

// DecodeSurgeTraffic parses the REST-only engine's per-interface traffic
// structure. The primary interface is the one with the highest combined
// in+out counter; ties break on interface name so the choice is stable
// across polls. When no interface data exists the first connector entry
// (again by name) is used instead.
func DecodeSurgeTraffic(data []byte) (SurgeTraffic, error) {
	var msg struct {
		Interface map[string]surgeCounter `json:"interface"`
		Connector map[string]surgeCounter `json:"connector"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return SurgeTraffic{}, fmt.Errorf("wire: interface traffic payload: %w", err)
	}

	name, counter, ok := primaryCounter(msg.Interface)
	if !ok {
		name, counter, ok = firstCounter(msg.Connector)
	}
	if !ok {
		return SurgeTraffic{}, fmt.Errorf("wire: traffic payload has no interface or connector data")
	}

	return SurgeTraffic{
		Interface:     name,
		UpRate:        counter.OutCurrentSpeed,
		DownRate:      counter.InCurrentSpeed,
		UploadTotal:   counter.Out,
		DownloadTotal: counter.In,
	}, nil
}

// primaryCounter selects the interface with the highest combined in+out
// traffic. Names are visited in sorted order and only a strictly greater
// total displaces the current pick, so ties resolve to the smallest name.
func primaryCounter(counters map[string]surgeCounter) (string, surgeCounter, bool) {
	if len(counters) == 0 {
		return "", surgeCounter{}, false
	}

	names := sortedNames(counters)
	best := names[0]
	for _, name := range names[1:] {
		c := counters[name]
		if c.In+c.Out > counters[best].In+counters[best].Out {
			best = name
		}
	}
	return best, counters[best], true
}

// firstCounter returns the first entry by name order.
func firstCounter(counters map[string]surgeCounter) (string, surgeCounter, bool) {
	if len(counters) == 0 {
		return "", surgeCounter{}, false
	}
	name := sortedNames(counters)[0]
	return name, counters[name], true
}

func sortedNames(counters map[string]surgeCounter) []string {
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Totals derives aggregate totals from a connections update.
func (u ConnectionsUpdate) Totals() telemetry.Totals {
	return telemetry.Totals{
		Upload:   u.UploadTotal,
		Download: u.DownloadTotal,
		Active:   len(u.Connections),
	}
}
