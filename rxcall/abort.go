package rxcall

import "encoding/binary"

// rxCallDeadCode is the default abort code assumed when a received ABORT
// packet's body is too short to carry an explicit one, and the code this
// engine sends for implicit server-side termination.
const rxCallDeadCode uint32 = 1

// handleRemoteAbort decodes a 4-byte abort code from a received ABORT
// packet (defaulting to rxCallDeadCode if the body is too short) and
// completes the call as remotely aborted.
func (c *Call) handleRemoteAbort(pkt PacketView) {
	code := rxCallDeadCode
	if body := pkt.Body(); len(body) >= 4 {
		code = binary.BigEndian.Uint32(body[0:4])
	}
	c.Complete(CompletedRemoteAbort, &RemoteError{AbortCode: code, Errno: ErrConnAborted})
}

// markDead sets the IS_DEAD flag ahead of implicit termination; see
// channel.go for the dispatcher logic that drives this.
func (c *Call) markDead() {
	c.flags.isDead.Store(true)
}

// IsDead reports whether the call has been marked for implicit termination.
func (c *Call) IsDead() bool {
	return c.flags.isDead.Load()
}
