package rxcall

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soypat/rxcall/internal"
)

// rxAtomicWindow packs (wtop, window) into one 64-bit word so the transmit
// side can read a consistent pair without a lock. The high 32 bits are
// wtop, the low 32 bits are window.
type rxAtomicWindow struct {
	v atomic.Uint64
}

func packWindow(wtop, window Seq) uint64 {
	return uint64(wtop)<<32 | uint64(uint32(window))
}

func unpackWindow(v uint64) (wtop, window Seq) {
	return Seq(v >> 32), Seq(uint32(v))
}

// Store publishes (wtop, window) with release semantics.
func (w *rxAtomicWindow) Store(wtop, window Seq) {
	w.v.Store(packWindow(wtop, window))
}

// Load acquires the most recently published (wtop, window) pair.
func (w *rxAtomicWindow) Load() (wtop, window Seq) {
	return unpackWindow(w.v.Load())
}

// rttSlotState tags one ring slot of the RTT probe tracker as either Free
// or Pending.
type rttSlotState uint8

const (
	rttSlotFree rttSlotState = iota
	rttSlotPending
)

// rttSlot holds one outstanding RTT probe.
type rttSlot struct {
	state  rttSlotState
	serial Serial
	sentAt time.Time
	label  string
}

// congMode is the congestion controller's current mode.
type congMode uint8

const (
	CongSlowStart congMode = iota
	CongAvoidance
	CongPacketLoss
	CongFastRetransmit
)

func (m congMode) String() string {
	switch m {
	case CongSlowStart:
		return "SLOW_START"
	case CongAvoidance:
		return "CONGEST_AVOIDANCE"
	case CongPacketLoss:
		return "PACKET_LOSS"
	case CongFastRetransmit:
		return "FAST_RETRANSMIT"
	default:
		return "UNKNOWN_MODE"
	}
}

// Call is the per-RPC receive-side state machine. One Call is created per
// in-flight RPC by the external dispatch layer and mutated only by the
// receive engine and its paired transmit engine under the concurrency
// discipline documented on each field/lock below.
type Call struct {
	log *slog.Logger

	collab Collaborators

	stateMu sync.Mutex // guards state transitions
	state   State

	flags callFlags

	completion  AbortCompletion
	completeErr error

	// --- transmit side ---
	txMu          sync.Mutex // guards tx_buffer traversal/append (unlocked RCU-style reads are also safe)
	txBuffer      []TxBuffer // ordered strictly by Seq
	txTop         Seq
	acksHardAck   atomic.Uint32 // acks_hard_ack, published with release semantics
	acksLowestNak Seq
	acksFirstSeq  Seq
	acksPrevSeq   Seq
	acksHighSerial Serial
	acksLatestTS  time.Time

	txWinsize uint32 // peer-advertised receive window

	// --- receive side ---
	window     rxAtomicWindow
	rxWinsize  uint32
	rxOOSQueue []Seq // holding set, sorted ascending, all in (window, window+rxWinsize)
	sackTable  [SackSize]bool
	rxHighestSeq Seq
	nrJumboBad   int

	// --- congestion control ---
	congMu       sync.Mutex
	congMode     congMode
	congCwnd     int
	congSsthresh int
	congCumulAcks int
	congDupAcks  int
	congExtra    int
	congTstamp   time.Time
	txLastSent   time.Time

	// --- RTT tracker ---
	rttMu      sync.Mutex
	rttRing    [rttRingSize]rttSlot
	rttSamples int
	rttSRTT    time.Duration

	// idle/service bookkeeping
	serviceID   uint32
	rxSerial    Serial
	idleTimeout time.Duration
}

// NewCall constructs a Call ready to receive packets for a fresh RPC.
func NewCall(state State, cfg CallConfig, collab Collaborators, log *slog.Logger) *Call {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	c := &Call{
		log:          log,
		collab:       collab,
		state:        state,
		rxWinsize:    cfg.RxWinsize,
		txWinsize:    cfg.TxWinsize,
		idleTimeout:  cfg.IdleTimeout,
		congCwnd:     1,
		congSsthresh: TxMaxWindow,
	}
	c.window.Store(1, 1) // window/wtop start at seq 1, the first legal DATA seq
	internal.SliceReuse(&c.rxOOSQueue, int(cfg.RxWinsize))
	return c
}

// State returns the call's current phase.
func (c *Call) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// IsComplete reports whether the call has reached its terminal state.
func (c *Call) IsComplete() bool {
	return c.State().IsComplete()
}

// Window returns the current receive window bounds (acquire load).
func (c *Call) Window() (wtop, window Seq) {
	return c.window.Load()
}

// HardAck returns the current acks_hard_ack (acquire load).
func (c *Call) HardAck() Seq {
	return Seq(c.acksHardAck.Load())
}

// Completion returns why the call reached Complete; meaningless before
// completion (zero value CompletedNormally).
func (c *Call) Completion() AbortCompletion {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.completion
}
