package rxcall

import (
	"testing"
	"time"
)

func TestRTTProbeRoundTrip(t *testing.T) {
	c, _, _ := newTestCall(ClientSendRequest)
	sent := time.Now()
	c.StartRTTProbe(1, sent, "DATA")

	c.completeRTTProbe(1, sent.Add(50*time.Millisecond))

	peer := c.collab.Peer.(*fakePeer)
	if len(peer.samples) != 1 {
		t.Fatalf("expected one RTT sample forwarded to peer, got %d", len(peer.samples))
	}
	if !c.hasRTTSamples() {
		t.Fatal("hasRTTSamples should be true after a completed probe")
	}
}

// An ACK whose serial is newer than a still-pending probe retires that probe
// as obsolete, without contributing a sample.
func TestRTTProbeObsoleteRetirement(t *testing.T) {
	c, _, _ := newTestCall(ClientSendRequest)
	sent := time.Now()
	c.StartRTTProbe(1, sent, "DATA")
	c.StartRTTProbe(2, sent.Add(time.Millisecond), "DATA")

	c.completeRTTProbe(3, sent.Add(20*time.Millisecond))

	peer := c.collab.Peer.(*fakePeer)
	if len(peer.samples) != 0 {
		t.Fatalf("obsolete retirement should not record a sample, got %d", len(peer.samples))
	}
	for i := range c.rttRing {
		if c.rttRing[i].state == rttSlotPending {
			t.Fatal("no probe should remain pending after an acked serial newer than both")
		}
	}
}

func TestRTTProbeLostNoMatch(t *testing.T) {
	c, _, _ := newTestCall(ClientSendRequest)
	// No probe started; completing an unknown serial must not panic and
	// must leave the ring untouched.
	c.completeRTTProbe(99, time.Now())
	if c.hasRTTSamples() {
		t.Fatal("no sample should have been recorded")
	}
}

func TestSmoothedRTTDefaultsBeforeFirstSample(t *testing.T) {
	c, _, _ := newTestCall(ClientSendRequest)
	if got := c.smoothedRTT(); got != defaultSRTT {
		t.Fatalf("smoothedRTT = %v, want default %v", got, defaultSRTT)
	}
}
