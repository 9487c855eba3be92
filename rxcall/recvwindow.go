package rxcall

import (
	"sort"
	"time"
)

// receiveData ingests one logical DATA subpacket (already de-jumboed) at
// sequence seq. isJumbo is true for a unit that splitJumbo detached while
// the JUMBO flag was still set on it; ordinary DATA and the final remainder
// of a jumbo packet pass false. It governs both the abuse counter and
// duplicate-OoS accounting below.
func (c *Call) receiveData(seq Seq, serial Serial, flags PacketFlags, isJumbo bool, now time.Time) error {
	if c.IsComplete() {
		return nil
	}

	// The first reply DATA on a client call ends the TX phase before any
	// reply bytes are accepted into the RX window.
	if c.State() == ClientAwaitReply {
		if err := c.receivingReply(); err != nil {
			return err
		}
	}

	last := flags.Has(FlagLastPacket)

	// Last-packet invariants.
	wtop, window := c.Window()
	if last {
		if c.flags.rxLast.Load() && seq != wtop-1 {
			return newProtocolError("LSN", seq)
		}
		if c.flags.rxLast.Load() && seq.AfterEq(wtop) {
			return newProtocolError("LSA", seq)
		}
	}

	// Highest seen.
	if seq.After(c.rxHighestSeq) {
		c.rxHighestSeq = seq
	}

	// Jumbo abuse.
	if isJumbo && c.nrJumboBad > 3 {
		if c.collab.Transport != nil {
			c.collab.Transport.SendACK(c, AckNoSpace, serial, "jumbo-abuse")
		}
		return nil
	}

	wlimit := window.Add(c.rxWinsize - 1)

	// Window check.
	if seq.Before(window) {
		if c.collab.Transport != nil {
			c.collab.Transport.SendACK(c, AckDuplicate, serial, "before-window")
		}
		return nil
	}
	if seq.After(wlimit) {
		if c.collab.Transport != nil {
			c.collab.Transport.SendACK(c, AckExceedsWindow, serial, "beyond-window")
		}
		return nil
	}

	if last {
		c.flags.rxLast.Store(true)
	}

	if seq == window {
		c.deliverInOrder(seq, serial, flags, now)
		return nil
	}

	// Out-of-order delivery.
	return c.deliverOutOfOrder(seq, serial, isJumbo)
}

// deliverInOrder advances the receive window past a newly in-order packet,
// draining any out-of-sequence packets the advance now covers.
func (c *Call) deliverInOrder(seq Seq, serial Serial, flags PacketFlags, now time.Time) {
	var reason AckReason
	immediate := true
	switch {
	case flags.Has(FlagRequestAck):
		reason = AckRequested
	case len(c.rxOOSQueue) > 0:
		reason = AckDelay
	default:
		immediate = false
	}

	wtop, window := c.Window()
	window = window.Add(1)
	if window.After(wtop) {
		wtop = window
	}

	// Drain the OoS queue: while its head has seq <= window, unlink and advance.
	resetFrom := window
	i := 0
	for i < len(c.rxOOSQueue) && c.rxOOSQueue[i].BeforeEq(window) {
		if c.rxOOSQueue[i] == window {
			window = window.Add(1)
		}
		i++
	}
	if i > 0 {
		c.rxOOSQueue = append(c.rxOOSQueue[:0], c.rxOOSQueue[i:]...)
	}
	for s := resetFrom; s.Before(window); s = s.Add(1) {
		c.sackTable[uint32(s)%SackSize] = false
	}

	c.window.Store(wtop, window)

	if immediate && c.collab.Transport != nil {
		c.collab.Transport.SendACK(c, reason, serial, "in-order")
	} else if c.collab.Transport != nil {
		c.collab.Transport.ProposeDelayACK(c)
	}
	if c.collab.Socket != nil {
		c.collab.Socket.NotifySocket(c)
	}
}

// deliverOutOfOrder records an out-of-sequence packet's Seq in the SACK
// table and holding queue without buffering its payload; the caller
// releases the packet's buffer once this returns, consistent with a
// SocketNotifier that only ever signals "data is ready", never delivers
// payload bytes itself.
func (c *Call) deliverOutOfOrder(seq Seq, serial Serial, isJumbo bool) error {
	idx := uint32(seq) % SackSize
	if c.sackTable[idx] {
		// Duplicate OoS packet. Only a duplicate detached from a jumbo
		// packet with the JUMBO flag still set contributes to nr_jumbo_bad.
		if isJumbo {
			c.nrJumboBad++
		}
		if c.collab.Transport != nil {
			c.collab.Transport.SendACK(c, AckDuplicate, serial, "oos-duplicate")
		}
		return nil
	}

	c.sackTable[idx] = true
	wtop, window := c.Window()
	if seq.Add(1).After(wtop) {
		wtop = seq.Add(1)
		c.window.Store(wtop, window)
	}

	pos := sort.Search(len(c.rxOOSQueue), func(i int) bool {
		return c.rxOOSQueue[i].After(seq)
	})
	c.rxOOSQueue = append(c.rxOOSQueue, 0)
	copy(c.rxOOSQueue[pos+1:], c.rxOOSQueue[pos:])
	c.rxOOSQueue[pos] = seq

	if c.collab.Transport != nil {
		c.collab.Transport.SendACK(c, AckOutOfSequence, serial, "oos")
	}
	return nil
}
