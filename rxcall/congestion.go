package rxcall

import (
	"log/slog"
	"time"
)

// manageCongestion runs the RFC 5681-style congestion controller, driven by
// the per-ACK summary accumulated during soft-ACK decode and TX rotation.
func (c *Call) manageCongestion(sum *ackSummary, now time.Time) {
	c.congMu.Lock()
	defer c.congMu.Unlock()

	flightSize := int(c.txTop.Sub(c.HardAck())) - sum.newAcks
	if flightSize < 0 {
		flightSize = 0
	}

	if testAndClear(&c.flags.retransTimeout) {
		c.congSsthresh = maxInt(flightSize/2, 2)
		c.congCwnd = 1
		if c.congMode == CongSlowStart && c.congCwnd >= c.congSsthresh {
			c.congMode = CongAvoidance
			c.congCumulAcks = 0
		}
	}

	c.congCumulAcks += sum.newAcks + sum.rotNewAcks
	if c.congCumulAcks > 255 {
		c.congCumulAcks = 255
	}

	srtt := c.smoothedRTT()
	if (c.congMode == CongSlowStart || c.congMode == CongAvoidance) &&
		!c.txLastSent.IsZero() && now.Sub(c.txLastSent) > srtt {
		c.congMode = CongSlowStart
		c.congCwnd = smssCwnd(TxSMSS)
	}

	resend := false

	switch c.congMode {
	case CongSlowStart:
		if sum.sawNacks {
			c.packetLossDetectedLocked(flightSize)
		} else {
			if c.congCumulAcks > 0 {
				c.congCwnd++
			}
			if c.congCwnd >= c.congSsthresh {
				c.congMode = CongAvoidance
				c.congTstamp = now
			}
		}

	case CongAvoidance:
		if sum.sawNacks {
			c.packetLossDetectedLocked(flightSize)
		} else if !c.hasRTTSamples() || now.Sub(c.congTstamp) < srtt {
			// leave cwnd unchanged, cumul_acks retained for next round
		} else {
			if c.congCumulAcks >= c.congCwnd {
				c.congCwnd++
			}
			c.congTstamp = now
			c.congCumulAcks = 0
		}

	case CongPacketLoss:
		if !sum.sawNacks {
			c.resumeNormalityLocked()
		} else if sum.newLowNack {
			c.congDupAcks = 1
			if c.congExtra > 1 {
				c.congExtra = 1
			}
			c.sendExtraDataLocked()
		} else {
			c.congDupAcks++
			if c.congDupAcks >= 3 {
				c.congMode = CongFastRetransmit
				c.congSsthresh = maxInt(flightSize/2, 2)
				c.congCwnd = c.congSsthresh + 3
				resend = true
			}
		}

	case CongFastRetransmit:
		if !sum.newLowNack {
			if sum.newAcks == 0 {
				c.congCwnd++
			}
			c.congDupAcks++
			if c.congDupAcks == 2 {
				resend = true
			}
		} else {
			c.congCwnd = c.congSsthresh
			if !sum.sawNacks {
				c.resumeNormalityLocked()
			}
		}
	}

	if c.congCwnd > TxMaxWindow {
		c.congCwnd = TxMaxWindow
	}
	if c.congCwnd < 1 {
		c.congCwnd = 1
	}

	c.trace("congestion step",
		slog.String("mode", c.congMode.String()),
		slog.Int("cwnd", c.congCwnd),
		slog.Int("ssthresh", c.congSsthresh))

	if resend && c.collab.Transport != nil {
		c.collab.Transport.Resend(c)
	}
}

// packetLossDetectedLocked transitions into PACKET_LOSS, counting the
// triggering ACK itself as the first duplicate-ACK observation so that
// three consecutive saw_nacks rounds (the trigger plus two more) reach the
// dup_acks==3 threshold that enters FAST_RETRANSMIT. Caller holds congMu.
func (c *Call) packetLossDetectedLocked(flightSize int) {
	c.congMode = CongPacketLoss
	c.congSsthresh = maxInt(flightSize/2, 2)
	c.congDupAcks = 1
}

// resumeNormalityLocked leaves PACKET_LOSS/FAST_RETRANSMIT once NAKs clear.
// Caller holds congMu.
func (c *Call) resumeNormalityLocked() {
	if c.congCwnd < c.congSsthresh {
		c.congMode = CongSlowStart
	} else {
		c.congMode = CongAvoidance
	}
	c.congDupAcks = 0
	c.congExtra = 0
	c.congTstamp = time.Time{}
}

// sendExtraDataLocked wakes the writer to push at most cong_extra additional
// unsent DATA packets. Caller holds congMu.
func (c *Call) sendExtraDataLocked() {
	if c.collab.Transport == nil || c.congExtra <= 0 {
		return
	}
	n := c.congExtra
	if !c.flags.txLast.Load() && n > 1 {
		n = 1
	}
	c.collab.Transport.SendExtraData(c, n)
}

// smssCwnd implements the idle-reset SMSS table used to reseed cwnd after
// a quiet period.
func smssCwnd(smss int) int {
	switch {
	case smss > 2190:
		return 2
	case smss > 1095:
		return 3
	default:
		return 4
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
