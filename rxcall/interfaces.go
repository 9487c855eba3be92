package rxcall

import (
	"sync"
	"time"
)

// Peer is the shared per-destination object; mutated under its own Lock,
// never the Call's.
type Peer interface {
	Lock() sync.Locker
	SRTT() time.Duration
	RTTCount() uint32
	AddRTT(sample time.Duration)
	SetMaxData(maxdata uint32)
	SetMTU(mtu uint32)
	HeaderSize() uint32
}

// Security unshares (decrypts/verifies) a packet in place when its
// SecurityIdx is non-zero. Key derivation itself is out of scope for this
// package; this is only the call-site contract the receive engine relies on.
type Security interface {
	Unshare(pkt PacketView) error
}

// Transport is the transmit-side collaborator the receive engine drives but
// never blocks on.
type Transport interface {
	SendACK(call *Call, reason AckReason, serial Serial, why string)
	ProposeDelayACK(call *Call)
	ProposePing(call *Call)
	SendAbort(call *Call, code uint32, why string)
	Resend(call *Call)
	SendExtraData(call *Call, n int)
}

// Timers adjusts the call's outstanding deadlines; implementations own the
// actual timer wheel.
type Timers interface {
	ReduceCallTimer(call *Call, deadline time.Time, now time.Time, reason string)
}

// SocketNotifier wakes the reader/writer waiting on a call's socket.
type SocketNotifier interface {
	NotifySocket(call *Call)
	DisconnectCall(call *Call)
}

// Collaborators bundles the external objects a Call needs; every receive
// handler takes them in rather than reaching for globals, so the engine can
// be exercised headless in tests.
type Collaborators struct {
	Peer      Peer
	Security  Security
	Transport Transport
	Timers    Timers
	Socket    SocketNotifier
}
