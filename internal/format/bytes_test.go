package format

import (
	"testing"
	"time"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0 B"},
		{"negative clamped", -100, "0 B"},
		{"bytes", 512, "512 B"},
		{"just below KB threshold", 1023, "1023 B"},
		{"exactly 1 KB", 1024, "1.0 KB"},
		{"kilobytes", 2048, "2.0 KB"},
		{"just below MB threshold", 1024*1024 - 1, "1024.0 KB"},
		{"exactly 1 MB", 1024 * 1024, "1.00 MB"},
		{"megabytes", 20.25 * 1024 * 1024, "20.25 MB"},
		{"gigabytes", 3.1 * 1024 * 1024 * 1024, "3.10 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bytes(tt.in); got != tt.want {
				t.Errorf("Bytes(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRate(t *testing.T) {
	if got := Rate(2048); got != "2.0 KB/s" {
		t.Errorf("Rate(2048) = %q, want \"2.0 KB/s\"", got)
	}
	if got := Rate(0); got != "0 B/s" {
		t.Errorf("Rate(0) = %q, want \"0 B/s\"", got)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxWidth int
		want     string
	}{
		{"fits", "short", 10, "short"},
		{"truncated", "averylonghostname.example.com", 12, "averylong..."},
		{"tiny width", "hello", 3, "hel"},
		{"zero width", "hello", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWithEllipsis(tt.in, tt.maxWidth); got != tt.want {
				t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTimeSince(t *testing.T) {
	if got := TimeSince(time.Time{}); got != "never" {
		t.Errorf("TimeSince(zero) = %q, want \"never\"", got)
	}
	if got := TimeSince(time.Now()); got != "just now" {
		t.Errorf("TimeSince(now) = %q, want \"just now\"", got)
	}
	if got := TimeSince(time.Now().Add(-30 * time.Second)); got != "30s ago" {
		t.Errorf("TimeSince(-30s) = %q, want \"30s ago\"", got)
	}
	if got := TimeSince(time.Now().Add(-5 * time.Minute)); got != "5m ago" {
		t.Errorf("TimeSince(-5m) = %q, want \"5m ago\"", got)
	}
}
