package rxcall

import (
	"time"

	"github.com/soypat/rxcall/internal"
)

// Now returns the platform's monotonic clock reading, the time source a
// real dispatch loop should pass as the now argument to HandlePacket and its
// siblings. Linux reads CLOCK_MONOTONIC directly; every other target falls
// back to time.Now (already monotonic-backed on all Go-supported OSes other
// than bare-metal/TinyGo targets).
func Now() time.Time {
	return internal.MonotonicNow()
}
