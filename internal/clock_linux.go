//go:build linux

package internal

import (
	"time"

	"golang.org/x/sys/unix"
)

// MonotonicNow returns CLOCK_MONOTONIC as a time.Time whose only meaningful
// use is computing durations between two calls (RTT sampling, idle-timeout
// checks); the wall-clock component is not meaningful and must not be
// compared across processes.
func MonotonicNow() time.Time {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Now()
	}
	return time.Unix(ts.Sec, ts.Nsec)
}
