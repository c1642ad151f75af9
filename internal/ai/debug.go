package ai

import "sync/atomic"

// debugLoggingEnabled gates per-tick debug logging so the hot path pays one
// atomic load instead of a level check. Set from main after config is parsed.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging switches per-tick debug logging on or off.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled reports whether per-tick debug logging is on. Guard expensive
// debug calls with it:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("boss state transition", "stack", a.Stack())
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
