package relcore

import "go.uber.org/zap"

// loggerOrNop returns log, or a no-op logger if log is nil. Every component
// that accepts an optional *zap.Logger runs this first, so callers that
// don't care about logging never need to construct one (SPEC_FULL.md §3.1).
func loggerOrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
