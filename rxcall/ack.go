package rxcall

import (
	"log/slog"
	"time"
)

// handleAck processes one incoming ACK packet in full: wire parsing, RTT
// completion, the PING/REQUESTED auto-responses, NAT-reset heuristics, the
// regression filter, the optional ackinfo trailer, validity checks, the
// state gate, TX window rotation, soft-ACK decode, the lost-reply ping, and
// finally congestion management.
func (c *Call) handleAck(pkt PacketView, now time.Time) error {
	hdr := pkt.Header()
	body := pkt.Body()

	ap, err := decodeAckPacket(body)
	if err != nil {
		return newProtocolError("XAK", c.txTop)
	}
	hardAck := ap.FirstPacket.Add(^uint32(0)) // FirstPacket - 1, circular

	if ap.Reason == AckPingResponse || ap.Reason == AckRequested {
		c.completeRTTProbe(ap.AckedSerial, now)
	} else if ap.AckedSerial != 0 {
		c.cancelRTTProbe(ap.AckedSerial)
	}

	if c.collab.Transport != nil {
		switch {
		case ap.Reason == AckPing:
			c.collab.Transport.SendACK(c, AckPingResponse, hdr.Serial, "ping-response")
		case hdr.Flags.Has(FlagRequestAck):
			c.collab.Transport.SendACK(c, AckRequested, hdr.Serial, "requested")
		}
	}

	if c.State().IsClient() {
		if ap.Reason == AckExceedsWindow && ap.FirstPacket == 1 && ap.PreviousPacket == 0 {
			c.Complete(CompletedRemoteReset, &RemoteError{Errno: ErrNetReset})
			return nil
		}
		if ap.Reason == AckOutOfSequence && ap.FirstPacket == 1 && ap.PreviousPacket == 0 && c.HardAck() == 0 {
			c.Complete(CompletedRemoteReset, &RemoteError{Errno: ErrNetReset})
			return nil
		}
	}

	if !c.isAckValid(ap.FirstPacket, ap.PreviousPacket) {
		c.trace("ack regression rejected",
			slog.Uint64("first", uint64(ap.FirstPacket)),
			slog.Uint64("prev", uint64(ap.PreviousPacket)))
		return nil // regression: trace only, no state mutation
	}

	sackOffset := ackPacketLen
	infoOffset := sackOffset + int(ap.NAcks) + ackPadLen
	if infoOffset+ackInfoLen <= len(body) {
		if info, err := decodeAckInfo(body[infoOffset:]); err == nil {
			c.applyAckInfo(info)
		}
	}

	c.acksLatestTS = now
	c.acksFirstSeq = ap.FirstPacket
	c.acksPrevSeq = ap.PreviousPacket
	if ap.Reason != AckPing && c.acksHighSerial.Before(ap.AckedSerial) {
		c.acksHighSerial = ap.AckedSerial
	}

	if ap.FirstPacket == 0 {
		return newProtocolError("AK0", c.txTop)
	}
	if hardAck.Before(c.HardAck()) || hardAck.After(c.txTop) {
		return newProtocolError("AKW", hardAck)
	}
	if uint32(ap.NAcks) > uint32(c.txTop.Sub(hardAck)) {
		return newProtocolError("AKN", hardAck)
	}

	if !c.State().canProcessACK() {
		return nil
	}

	sum := &ackSummary{}

	if hardAck.After(c.HardAck()) {
		if c.rotateTXWindow(hardAck, sum) {
			c.endTXPhase(false, "ETD")
			return nil
		}
	}

	acked := 0
	if ap.NAcks > 0 {
		if sackOffset+int(ap.NAcks) > len(body) {
			return newProtocolError("XSA", hardAck)
		}
		acked = c.decodeSoftAcks(hardAck, body[sackOffset:sackOffset+int(ap.NAcks)], sum)
	}

	if c.State().IsClient() && c.flags.txLast.Load() {
		outstanding := uint32(c.txTop.Sub(hardAck))
		if uint32(acked) == outstanding && c.collab.Transport != nil {
			c.collab.Transport.ProposePing(c)
		}
	}

	c.manageCongestion(sum, now)
	return nil
}

// decodeSoftAcks decodes the variable-length soft-ACK array following the
// fixed ackpacket header. base is hard_ack; array index i corresponds to
// seq = base+1+i. Returns the count of ACK (not NAK) bytes.
func (c *Call) decodeSoftAcks(base Seq, bytes []byte, sum *ackSummary) int {
	acked := 0
	for i, b := range bytes {
		seq := base.Add(uint32(i) + 1)
		if SackEntry(b).IsAck() {
			acked++
			sum.newAcks++
			continue
		}
		sum.sawNacks = true
		if seq.After(c.acksLowestNak) {
			c.acksLowestNak = seq
			sum.newLowNack = true
		}
	}
	return acked
}

// isAckValid is the regression filter: it rejects an ACK whose firstPacket
// or previousPacket fields regress relative to the last accepted ACK.
func (c *Call) isAckValid(firstPkt, prevPkt Seq) bool {
	switch {
	case firstPkt.After(c.acksFirstSeq):
		return true
	case firstPkt.Before(c.acksFirstSeq):
		return false
	case prevPkt.AfterEq(c.acksPrevSeq):
		return true
	case prevPkt.AfterEq(c.acksFirstSeq.Add(c.txWinsize)):
		return false
	default:
		return true
	}
}

// applyAckInfo applies an optional ackinfo trailer: it clamps and adopts
// the peer's advertised receive window and sets the peer's maxdata to the
// smaller of rxMTU and maxMTU (and its MTU to maxdata plus header size).
func (c *Call) applyAckInfo(info AckInfo) {
	rwind := info.Rwind
	if rwind > TxMaxWindow {
		rwind = TxMaxWindow
	}
	grew := rwind > c.txWinsize
	c.txWinsize = rwind
	if grew && c.collab.Socket != nil {
		c.collab.Socket.NotifySocket(c)
	}

	c.congMu.Lock()
	if int(rwind) < c.congSsthresh {
		c.congSsthresh = int(rwind)
	}
	c.congMu.Unlock()

	if c.collab.Peer == nil {
		return
	}
	maxdata := info.RxMTU
	if info.MaxMTU < maxdata {
		maxdata = info.MaxMTU
	}
	lock := c.collab.Peer.Lock()
	lock.Lock()
	defer lock.Unlock()
	c.collab.Peer.SetMaxData(maxdata)
	c.collab.Peer.SetMTU(maxdata + c.collab.Peer.HeaderSize())
}
