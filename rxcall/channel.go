package rxcall

import (
	"sync"
	"time"
)

// Channel is one of a connection's fixed slots, each holding at most one
// live Call at a time. It implements the rule that a new callNumber on the
// same channel implicitly terminates the call currently occupying it: look
// up the existing occupant under a lock, allocate (or here, replace) on
// miss.
type Channel struct {
	mu         sync.Mutex
	call       *Call
	callNumber uint32
	socket     SocketNotifier
}

// NewChannel returns an empty channel slot.
func NewChannel(socket SocketNotifier) *Channel {
	return &Channel{socket: socket}
}

// Dispatch routes pkt to the channel's current call, first implicitly
// terminating it if callNumber names a newer RPC (server side only).
// newCall is invoked to allocate a call only when the channel is empty or a
// hand-off actually occurs.
func (ch *Channel) Dispatch(pkt PacketView, callNumber uint32, newCall func() *Call, now time.Time) error {
	ch.mu.Lock()
	cur := ch.call
	if cur != nil && callNumber > ch.callNumber {
		ch.terminateLocked(cur, pkt, now)
		ch.call = newCall()
		ch.callNumber = callNumber
	} else if cur == nil {
		ch.call = newCall()
		ch.callNumber = callNumber
	}
	call := ch.call
	ch.mu.Unlock()

	return call.HandlePacket(pkt, now)
}

// terminateLocked implements the implicit-end sequence for the outgoing
// call. Caller holds ch.mu (the channel's analogue of incoming_lock).
func (ch *Channel) terminateLocked(old *Call, pkt PacketView, now time.Time) {
	old.markDead()
	// Flush: give the outgoing call's own TX buffer a final chance to
	// settle against its last known hard-ack before judging it done.
	old.rotateTXWindow(old.txTop, nil)

	if old.State() == ServerAwaitAck {
		old.Complete(CompletedNormally, nil)
		return
	}

	old.Complete(CompletedLocalShutdown, ErrShutdown)
	if old.collab.Transport != nil {
		old.collab.Transport.SendAbort(old, rxCallDeadCode, "IMP")
	}
	if ch.socket != nil {
		ch.socket.DisconnectCall(old)
	}
}
