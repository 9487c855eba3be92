package rxcall

import (
	"encoding/binary"
	"testing"
	"time"
)

// buildAckBody encodes an ackpacket (§6) with an optional soft-ACK array and
// no ackinfo trailer, for constructing test fixtures.
func buildAckBody(ap AckPacket, softAcks []byte) []byte {
	buf := make([]byte, ackPacketLen+len(softAcks)+ackPadLen)
	binary.BigEndian.PutUint16(buf[0:2], ap.BufferSpace)
	binary.BigEndian.PutUint16(buf[2:4], ap.MaxSkew)
	binary.BigEndian.PutUint32(buf[4:8], uint32(ap.FirstPacket))
	binary.BigEndian.PutUint32(buf[8:12], uint32(ap.PreviousPacket))
	binary.BigEndian.PutUint32(buf[12:16], uint32(ap.AckedSerial))
	buf[16] = byte(ap.Reason)
	buf[17] = byte(len(softAcks))
	copy(buf[ackPacketLen:], softAcks)
	return buf
}

func ackPacket(hdr WireHeader, ap AckPacket, softAcks []byte) *fakePacket {
	hdr.Type = TypeAck
	return &fakePacket{hdr: hdr, body: buildAckBody(ap, softAcks)}
}

// Scenario (i) second half: ACK hard=4, nAcks=0 on a call whose tx_buffer's
// last entry (seq 4) carries LAST, and which is in SERVER_AWAIT_ACK, ends
// the TX phase successfully (COMPLETE).
func TestAckRotatesAndEndsPhase(t *testing.T) {
	c, _, sock := newTestCall(ServerAwaitAck)
	c.txTop = 4
	c.txBuffer = []TxBuffer{{Seq: 1}, {Seq: 2}, {Seq: 3}, {Seq: 4, Last: true}}

	pkt := ackPacket(WireHeader{Serial: 100}, AckPacket{FirstPacket: 5, PreviousPacket: 0, Reason: AckRequested}, nil)
	if err := c.HandlePacket(pkt, time.Now()); err != nil {
		t.Fatal(err)
	}
	if !pkt.released {
		t.Error("ack packet not released")
	}
	if got := c.State(); got != Complete {
		t.Fatalf("state = %v, want COMPLETE", got)
	}
	if sock.notified == 0 {
		t.Error("socket should be notified on completion")
	}
}

// Scenario (vi): NAT reset. Client call with acks_hard_ack=0 receives ACK
// reason=OUT_OF_SEQUENCE, firstPacket=1, previousPacket=0.
func TestAckNATResetHeuristic(t *testing.T) {
	c, _, _ := newTestCall(ClientAwaitReply)
	c.txTop = 10
	c.txBuffer = []TxBuffer{{Seq: 10, Last: true}}

	pkt := ackPacket(WireHeader{Serial: 1}, AckPacket{FirstPacket: 1, PreviousPacket: 0, Reason: AckOutOfSequence}, nil)
	if err := c.HandlePacket(pkt, time.Now()); err != nil {
		t.Fatal(err)
	}
	if !c.IsComplete() {
		t.Fatal("call should be complete after NAT-reset heuristic")
	}
	if c.Completion() != CompletedRemoteReset {
		t.Fatalf("completion = %v, want CompletedRemoteReset", c.Completion())
	}
	re, ok := c.CompletionError().(*RemoteError)
	if !ok {
		t.Fatalf("completion error type = %T, want *RemoteError", c.CompletionError())
	}
	if re.Errno != ErrNetReset {
		t.Fatalf("errno = %v, want ErrNetReset", re.Errno)
	}
}

// The regression filter (§4.6, §8 invariant 7) rejects an ACK whose
// firstPacket regresses relative to the last accepted one.
func TestAckRegressionFilterRejectsStaleFirstPacket(t *testing.T) {
	c, _, _ := newTestCall(ClientAwaitReply)
	c.txTop = 10
	c.txBuffer = []TxBuffer{{Seq: 10, Last: true}}
	c.acksFirstSeq = 5
	c.acksPrevSeq = 0

	if valid := c.isAckValid(3, 0); valid {
		t.Fatal("ack with regressed firstPacket should be rejected")
	}
	if valid := c.isAckValid(6, 0); !valid {
		t.Fatal("ack with advanced firstPacket should be accepted")
	}
}

// A short ackinfo-bearing ACK grows tx_winsize and sets the peer maxdata to
// min(rxMTU, maxMTU).
func TestAckInfoTrailerAppliesMTUAndWindow(t *testing.T) {
	c, _, _ := newTestCall(ClientSendRequest)
	c.txTop = 1
	c.txBuffer = []TxBuffer{{Seq: 1}}
	peer := c.collab.Peer.(*fakePeer)

	body := buildAckBody(AckPacket{FirstPacket: 1, PreviousPacket: 0, Reason: AckRequested}, nil)
	info := make([]byte, ackInfoLen)
	binary.BigEndian.PutUint32(info[0:4], 1400)
	binary.BigEndian.PutUint32(info[4:8], 1500)
	binary.BigEndian.PutUint32(info[8:12], 64)
	binary.BigEndian.PutUint32(info[12:16], 4)
	body = append(body, info...)

	pkt := &fakePacket{hdr: WireHeader{Type: TypeAck, Serial: 1}, body: body}
	if err := c.HandlePacket(pkt, time.Now()); err != nil {
		t.Fatal(err)
	}
	if c.txWinsize != 32 { // clamped to TxMaxWindow
		t.Fatalf("txWinsize = %d, want 32 (clamped)", c.txWinsize)
	}
	if peer.maxdata != 1400 {
		t.Fatalf("peer.maxdata = %d, want 1400", peer.maxdata)
	}
}
