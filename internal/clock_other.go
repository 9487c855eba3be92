//go:build !linux

package internal

import "time"

// MonotonicNow falls back to the runtime's monotonic-backed time.Now on
// platforms without a CLOCK_MONOTONIC syscall binding (e.g. tinygo targets).
func MonotonicNow() time.Time {
	return time.Now()
}
