// Package monitor acquires, normalizes, and delivers live metric samples
// from a remote proxy controller. A Monitor owns one channel controller
// per metric feed (traffic, memory, connections), each running its own
// receive or poll loop, and republishes a merged snapshot to subscribers
// whenever any channel updates.
package monitor

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// EngineKind identifies which proxy-engine family and API dialect a
// backend profile speaks.
type EngineKind int

const (
	// EngineClash is the standard push-transport engine.
	EngineClash EngineKind = iota
	// EngineClashPremium is the restricted push-transport variant that
	// lacks memory introspection.
	EngineClashPremium
	// EngineSurge is the REST-only dialect; all feeds are polled.
	EngineSurge
)

// String returns the engine name used in config files and logs.
func (e EngineKind) String() string {
	switch e {
	case EngineClash:
		return "clash"
	case EngineClashPremium:
		return "clash-premium"
	case EngineSurge:
		return "surge"
	default:
		return fmt.Sprintf("unknown(%d)", int(e))
	}
}

// ParseEngineKind maps a config string to an EngineKind.
func ParseEngineKind(s string) (EngineKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clash", "":
		return EngineClash, nil
	case "clash-premium", "premium":
		return EngineClashPremium, nil
	case "surge":
		return EngineSurge, nil
	default:
		return EngineClash, fmt.Errorf("monitor: unknown engine kind %q", s)
	}
}

// ChannelKind identifies which metric a channel carries.
type ChannelKind int

const (
	ChannelTraffic ChannelKind = iota
	ChannelMemory
	ChannelConnections
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelTraffic:
		return "traffic"
	case ChannelMemory:
		return "memory"
	case ChannelConnections:
		return "connections"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Profile identifies the remote controller for one monitoring session.
// It is owned by the caller and read-only to the monitor.
type Profile struct {
	Host   string
	Port   int
	UseTLS bool
	Secret string
	Engine EngineKind
}

func (p Profile) validate() error {
	if p.Host == "" {
		return fmt.Errorf("monitor: profile has no host")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("monitor: profile port %d out of range", p.Port)
	}
	return nil
}

func (p Profile) hostPort() string {
	return p.Host + ":" + strconv.Itoa(p.Port)
}

// streamURL builds the websocket URL for a push channel.
func (p Profile) streamURL(path string) (string, error) {
	scheme := "ws"
	if p.UseTLS {
		scheme = "wss"
	}
	return p.buildURL(scheme, path)
}

// pollURL builds the HTTP URL for a poll channel.
func (p Profile) pollURL(path string) (string, error) {
	scheme := "http"
	if p.UseTLS {
		scheme = "https"
	}
	return p.buildURL(scheme, path)
}

func (p Profile) buildURL(scheme, path string) (string, error) {
	u := url.URL{Scheme: scheme, Host: p.hostPort(), Path: path}
	parsed, err := url.Parse(u.String())
	if err != nil || parsed.Host != p.hostPort() {
		return "", fmt.Errorf("monitor: cannot build %s URL for %q: %v", scheme, p.hostPort(), err)
	}
	return u.String(), nil
}

// streamHeader carries the bearer-style credential sent on push-channel
// establishment.
func (p Profile) streamHeader() http.Header {
	h := http.Header{}
	if p.Secret != "" {
		h.Set("Authorization", "Bearer "+p.Secret)
	}
	return h
}

// pollHeader carries the static API key sent on every poll request.
func (p Profile) pollHeader() http.Header {
	h := http.Header{}
	if p.Secret != "" {
		h.Set("X-Key", p.Secret)
	}
	return h
}
