package rxcall

import (
	"errors"
	"strconv"
)

// Sentinel errors returned by admission helpers that never reach the peer;
// they only tell the caller "drop this silently" or "buffer state problem".
var (
	// errDropSegment signals the packet must be released without further
	// processing, with no state mutation and no outgoing ACK.
	errDropSegment = errors.New("rxcall: drop packet")

	errShortHeader  = errors.New("rxcall: packet shorter than wire header")
	errShortAckInfo = errors.New("rxcall: ackinfo truncated")
	errCallComplete = errors.New("rxcall: call already complete")
)

// ProtocolError represents a locally detected protocol violation. It carries
// the three-letter code used throughout the wire protocol for diagnosability,
// together with the sequence number at which the violation was noticed.
//
// A ProtocolError always causes the call to transition towards COMPLETE with
// CompletedLocalProtocolError and an outgoing ABORT to be queued; it is never retried.
type ProtocolError struct {
	Code string // three-letter wire abort code, e.g. "LSN", "AKW"
	At   Seq    // sequence number active when the violation was detected
}

func newProtocolError(code string, at Seq) *ProtocolError {
	return &ProtocolError{Code: code, At: at}
}

func (e *ProtocolError) Error() string {
	return "rxcall: protocol abort " + e.Code
}

// RemoteError represents termination caused by a peer-sent ABORT packet or a
// NAT-reset heuristic. Errno mirrors the errno RxRPC attaches to the
// completed call (ECONNABORTED or ENETRESET).
type RemoteError struct {
	AbortCode uint32
	Errno     error
}

func (e *RemoteError) Error() string {
	return "rxcall: remote abort code=" + strconv.FormatUint(uint64(e.AbortCode), 10) + " (" + e.Errno.Error() + ")"
}

func (e *RemoteError) Unwrap() error { return e.Errno }

var (
	// ErrNetReset is the errno attached to a call completed by a NAT-reset heuristic.
	ErrNetReset = errors.New("rxcall: connection reset (NAT heuristic)")
	// ErrConnAborted is the errno attached to a call completed by a received ABORT.
	ErrConnAborted = errors.New("rxcall: connection aborted by peer")
	// ErrShutdown is the errno attached to implicit server-side termination.
	ErrShutdown = errors.New("rxcall: shut down (implicit termination)")
)
