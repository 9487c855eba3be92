package rxcall

// endTXPhase ends the transmit phase. It requires TX_LAST to already be set
// by the caller (via rotateTXWindow). It returns false (and protocol-aborts)
// on any state for which ending the TX phase is illegal.
func (c *Call) endTXPhase(replyBegun bool, abortWhy string) bool {
	if !c.flags.txLast.Load() {
		return false
	}

	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	switch c.state {
	case ClientSendRequest, ClientAwaitReply:
		if replyBegun {
			c.state = ClientRecvReply
		} else {
			c.state = ClientAwaitReply
		}
		return true
	case ServerAwaitAck:
		c.completeLocked(CompletedNormally, nil)
		return true
	default:
		c.protocolAbortLocked(abortWhy, c.txTop)
		return false
	}
}

// receivingReply is invoked when the first reply DATA arrives on a client
// call.
func (c *Call) receivingReply() error {
	if !c.flags.txLast.Load() {
		if !c.rotateTXWindow(c.txTop, nil) {
			return newProtocolError("TXL", c.txTop)
		}
	}
	c.endTXPhase(true, "ETD")
	return nil
}

// protocolAbortLocked marks the call complete due to a locally detected
// protocol violation; caller must hold stateMu.
func (c *Call) protocolAbortLocked(code string, at Seq) {
	err := newProtocolError(code, at)
	c.logerr("protocol abort", err)
	c.completeLocked(CompletedLocalProtocolError, err)
	if c.collab.Transport != nil {
		c.collab.Transport.SendAbort(c, rxProtocolErrorCode, code)
	}
}

// rxProtocolErrorCode is the abort code value RX_PROTOCOL_ERROR carries on
// the wire.
const rxProtocolErrorCode = 0xfffffff1

// completeLocked transitions the call to Complete; caller must hold
// stateMu. Idempotent: once Complete, further calls are no-ops, so no call
// state mutates after completion.
func (c *Call) completeLocked(how AbortCompletion, err error) {
	if c.state == Complete {
		return
	}
	c.state = Complete
	c.completion = how
	c.completeErr = err
	if c.collab.Socket != nil {
		c.collab.Socket.NotifySocket(c)
	}
}

// protocolAbort marks the call complete due to a locally detected protocol
// violation, acquiring stateMu itself.
func (c *Call) protocolAbort(code string, at Seq) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.protocolAbortLocked(code, at)
}

// Complete marks the call done for a reason not covered by the specific
// abort helpers (remote abort, remote reset, local shutdown).
func (c *Call) Complete(how AbortCompletion, err error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.completeLocked(how, err)
}

// CompletionError returns the error recorded when the call reached
// Complete, or nil if it completed normally or has not yet completed.
func (c *Call) CompletionError() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.completeErr
}
