package rxcall

import "time"

// nextRxTimeout is the idle deadline refreshed on every classified packet.
const nextRxTimeout = 65 * time.Second

// HandlePacket is the single entry point the external dispatch layer calls
// with an already-demuxed packet belonging to this Call. It updates
// service_id/rx_serial, refreshes the idle timer, and dispatches on packet
// type. The packet is released on every exit path.
//
// Precondition: HandlePacket must not run concurrently for the same Call;
// the Call holds no re-entrancy guard and relies on the dispatch layer to
// serialise its receive handlers.
func (c *Call) HandlePacket(pkt PacketView, now time.Time) error {
	if c.IsComplete() {
		pkt.Release()
		return errCallComplete
	}

	hdr := pkt.Header()

	if c.rxSerial.Before(hdr.Serial) {
		c.rxSerial = hdr.Serial
	}
	if hdr.ServiceID != 0 {
		c.serviceID = uint32(hdr.ServiceID)
	}
	if c.collab.Timers != nil {
		c.collab.Timers.ReduceCallTimer(c, now.Add(c.idleTimeout), now, "rx-idle")
	}

	if hdr.SecurityIdx != 0 && c.collab.Security != nil {
		if err := c.collab.Security.Unshare(pkt); err != nil {
			pkt.Release()
			return err
		}
	}

	var err error
	switch hdr.Type {
	case TypeData:
		err = c.handleDataEntry(pkt, now)
	case TypeAck:
		defer pkt.Release()
		err = c.handleAck(pkt, now)
	case TypeAckAll:
		defer pkt.Release()
		if c.rotateTXWindow(c.txTop, nil) {
			c.endTXPhase(false, "ETD")
		}
	case TypeBusy:
		pkt.Release()
	case TypeAbort:
		defer pkt.Release()
		c.handleRemoteAbort(pkt)
	default:
		pkt.Release()
		err = errDropSegment
	}

	if pe, ok := err.(*ProtocolError); ok {
		c.protocolAbort(pe.Code, pe.At)
	}
	return err
}

// handleDataEntry forwards a DATA packet to the jumbo splitter, which is
// responsible for releasing it (directly, or via the per-subpacket clones
// it hands to the receive-window engine).
func (c *Call) handleDataEntry(pkt PacketView, now time.Time) error {
	hdr := pkt.Header()
	if hdr.Flags.Has(FlagJumboPacket) {
		return c.splitJumbo(pkt, now)
	}
	defer pkt.Release()
	return c.receiveData(hdr.Seq, hdr.Serial, hdr.Flags, false, now)
}
