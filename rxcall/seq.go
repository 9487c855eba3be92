package rxcall

// Seq is an RxRPC packet sequence number. Sequence numbers start at 1 for
// the first data packet of a call and wrap modulo 2^32; all comparisons
// must use circular arithmetic rather than plain integer comparison so that
// wraparound does not look like a window reset.
type Seq uint32

// Before reports whether s comes strictly before o in circular sequence
// space, i.e. (int32)(s-o) < 0.
func (s Seq) Before(o Seq) bool {
	return int32(s-o) < 0
}

// After reports whether s comes strictly after o.
func (s Seq) After(o Seq) bool {
	return int32(s-o) > 0
}

// BeforeEq reports whether s is before or equal to o.
func (s Seq) BeforeEq(o Seq) bool {
	return int32(s-o) <= 0
}

// AfterEq reports whether s is after or equal to o.
func (s Seq) AfterEq(o Seq) bool {
	return int32(s-o) >= 0
}

// Add returns s+n, wrapping as uint32 arithmetic dictates.
func (s Seq) Add(n uint32) Seq {
	return Seq(uint32(s) + n)
}

// Sub returns the circular distance s-o as a signed count of packets; a
// negative result means s is before o.
func (s Seq) Sub(o Seq) int32 {
	return int32(s - o)
}

// InWindow reports whether s lies in the half-open circular interval
// [lo, hi), i.e. lo <= s < hi using wraparound-aware comparisons.
func (s Seq) InWindow(lo, hi Seq) bool {
	return s.AfterEq(lo) && s.Before(hi)
}

// Serial is the per-packet serial number RxRPC assigns on transmit, used
// for RTT correlation and duplicate-ACK detection. It follows the same
// wraparound rules as Seq, so comparisons use the same signed-subtraction
// circular arithmetic rather than a raw integer compare.
type Serial uint32

// Before reports whether r comes strictly before o in circular order.
func (r Serial) Before(o Serial) bool {
	return int32(r-o) < 0
}

// After reports whether r comes strictly after o.
func (r Serial) After(o Serial) bool {
	return int32(r-o) > 0
}

// BeforeEq reports whether r is before or equal to o.
func (r Serial) BeforeEq(o Serial) bool {
	return int32(r-o) <= 0
}

// AfterEq reports whether r is after or equal to o.
func (r Serial) AfterEq(o Serial) bool {
	return int32(r-o) >= 0
}
