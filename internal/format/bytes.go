// Package format provides shared string, byte-count, and time formatting
// utilities.
package format

import "fmt"

// Fixed unit thresholds. Formatting branches on these rather than walking
// a unit list so output stays stable across locales.
const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// Bytes renders a byte count as a human-readable size string.
// Returns strings like "512 B", "1.5 KB", "20.25 MB", "3.10 GB".
func Bytes(n float64) string {
	if n < 0 {
		n = 0
	}

	switch {
	case n >= gib:
		return fmt.Sprintf("%.2f GB", n/gib)
	case n >= mib:
		return fmt.Sprintf("%.2f MB", n/mib)
	case n >= kib:
		return fmt.Sprintf("%.1f KB", n/kib)
	default:
		return fmt.Sprintf("%.0f B", n)
	}
}

// Rate renders a bytes-per-second value as a human-readable speed string,
// e.g. "2.0 KB/s". It shares the fixed thresholds of Bytes.
func Rate(n float64) string {
	return Bytes(n) + "/s"
}
