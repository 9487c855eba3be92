package rxcall

// ackSummary carries the per-ACK counters the transmit rotator and
// congestion controller need, accumulated while processing a single ACK
// packet.
type ackSummary struct {
	rotNewAcks int
	newAcks    int
	sawNacks   bool
	newLowNack bool
}

// rotateTXWindow walks tx_buffer for entries with seq > acks_hard_ack
// through seq == to, counting newly rotated acks and detecting the LAST
// flag. Returns true iff TX_LAST was observed in this rotation (the caller
// then ends the TX phase). Accumulates into sum when sum is non-nil.
func (c *Call) rotateTXWindow(to Seq, sum *ackSummary) bool {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	hardAck := c.HardAck()
	sawLast := false
	newAcks := 0
	for _, tb := range c.txBuffer {
		if tb.Seq.BeforeEq(hardAck) {
			continue
		}
		if tb.Seq.After(to) {
			break
		}
		newAcks++
		if tb.Last {
			sawLast = true
		}
	}

	if sawLast {
		c.flags.txLast.Store(true)
		if to.AfterEq(c.txTop) {
			c.flags.txAllAcked.Store(true)
		}
	}

	if c.acksLowestNak == hardAck {
		c.acksLowestNak = to
	} else if to.After(c.acksLowestNak) {
		c.acksLowestNak = to
		if sum != nil {
			sum.newLowNack = true
		}
	}

	c.acksHardAck.Store(uint32(to))
	if sum != nil {
		sum.rotNewAcks += newAcks
	}
	return sawLast
}
