package rxcall

import (
	"log/slog"

	"github.com/soypat/rxcall/internal"
)

// trace logs at the package's sub-debug trace level, internal.LevelTrace,
// for the high-frequency per-packet bookkeeping that would otherwise drown
// out slog.LevelDebug output.
func (c *Call) trace(msg string, attrs ...slog.Attr) {
	if !internal.LogEnabled(c.log, internal.LevelTrace) {
		return
	}
	internal.LogAttrs(c.log, internal.LevelTrace, msg, attrs...)
}

func (c *Call) debug(msg string, attrs ...slog.Attr) {
	if !internal.LogEnabled(c.log, slog.LevelDebug) {
		return
	}
	internal.LogAttrs(c.log, slog.LevelDebug, msg, attrs...)
}

func (c *Call) logerr(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("err", err.Error()))
	internal.LogAttrs(c.log, slog.LevelError, msg, attrs...)
}
