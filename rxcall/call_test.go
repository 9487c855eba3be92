package rxcall

import (
	"testing"
	"time"
)

// End-to-end scenario (i), driven entirely through HandlePacket rather than
// calling the receive-window/ACK internals directly: four in-order DATA
// packets complete the request, then the final ACK ends the TX phase.
func TestEndToEndScenarioOneViaHandlePacket(t *testing.T) {
	c, _, sock := newTestCall(ServerRecvRequest)
	now := time.Now()

	for seq := Seq(1); seq <= 3; seq++ {
		if err := c.HandlePacket(dataPacket(seq, Serial(seq), 0), now); err != nil {
			t.Fatalf("seq %d: %v", seq, err)
		}
	}
	if err := c.HandlePacket(dataPacket(4, 4, FlagLastPacket), now); err != nil {
		t.Fatal(err)
	}
	if _, window := c.Window(); window != 5 {
		t.Fatalf("window = %d, want 5 after four in-order DATA packets", window)
	}

	// Server transitions to SERVER_AWAIT_ACK once the reply's TX buffer has
	// fully drained; simulate that by setting state and a tx_buffer whose
	// last entry carries LAST, seq 4.
	c.stateMu.Lock()
	c.state = ServerAwaitAck
	c.stateMu.Unlock()
	c.txTop = 4
	c.txBuffer = []TxBuffer{{Seq: 1}, {Seq: 2}, {Seq: 3}, {Seq: 4, Last: true}}

	ack := ackPacket(WireHeader{Serial: 100}, AckPacket{FirstPacket: 5, PreviousPacket: 0, Reason: AckRequested}, nil)
	if err := c.HandlePacket(ack, now); err != nil {
		t.Fatal(err)
	}
	if got := c.State(); got != Complete {
		t.Fatalf("state = %v, want COMPLETE", got)
	}
	if c.Completion() != CompletedNormally {
		t.Fatalf("completion = %v, want CompletedNormally", c.Completion())
	}
	if sock.notified == 0 {
		t.Fatal("socket should be notified on completion")
	}
}

// §4.1: a packet arriving for an already-complete call is dropped without
// mutating any state.
func TestHandlePacketOnCompleteCallIsDropped(t *testing.T) {
	c, _, _ := newTestCall(ServerAwaitAck)
	c.Complete(CompletedNormally, nil)

	pkt := dataPacket(1, 1, 0)
	err := c.HandlePacket(pkt, time.Now())
	if err != errCallComplete {
		t.Fatalf("err = %v, want errCallComplete", err)
	}
	if !pkt.released {
		t.Fatal("packet should still be released")
	}
	if _, window := c.Window(); window != 1 {
		t.Fatalf("window should be untouched, got %d", window)
	}
}

// §4.1/§4.7: the first reply DATA on a client call drives the TX phase to
// CLIENT_RECV_REPLY before the reply bytes are accepted.
func TestClientFirstReplyDataEndsRequestPhase(t *testing.T) {
	c, _, _ := newTestCall(ClientAwaitReply)
	c.flags.txLast.Store(true)
	c.txTop = 3
	c.txBuffer = []TxBuffer{{Seq: 1}, {Seq: 2}, {Seq: 3, Last: true}}

	if err := c.HandlePacket(dataPacket(1, 1, FlagLastPacket), time.Now()); err != nil {
		t.Fatal(err)
	}
	if got := c.State(); got != ClientRecvReply {
		t.Fatalf("state = %v, want CLIENT_RECV_REPLY", got)
	}
	if _, window := c.Window(); window != 2 {
		t.Fatalf("window = %d, want 2 (single-packet reply consumed)", window)
	}
}
