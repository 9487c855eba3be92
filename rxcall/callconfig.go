package rxcall

import "time"

// CallConfig bundles the tunables a Call is constructed with, collecting
// them into one struct with sane zero-value defaults applied at
// construction rather than scattering nil/zero checks through the engine.
type CallConfig struct {
	// RxWinsize bounds the width of the receive window. Zero selects a
	// default of 32.
	RxWinsize uint32

	// TxWinsize is the initial peer-advertised transmit window before any
	// ackinfo has been received. Zero selects 16.
	TxWinsize uint32

	// IdleTimeout overrides nextRxTimeout. Zero selects the package default.
	IdleTimeout time.Duration
}

func (cfg CallConfig) withDefaults() CallConfig {
	if cfg.RxWinsize == 0 {
		cfg.RxWinsize = 32
	}
	if cfg.TxWinsize == 0 {
		cfg.TxWinsize = 16
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = nextRxTimeout
	}
	return cfg
}
