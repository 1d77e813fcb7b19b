package fractal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for fractal and every GPU evaluator
// currently bound to a Renderer. By default nothing is logged.
// Pass nil to restore the silent default.
//
// Log levels used by fractal:
//   - [slog.LevelDebug]: sweep timings, skipped publishes
//   - [slog.LevelInfo]: mode changes, singularity hits
//   - [slog.LevelWarn]: CPU fallback, display surface errors
//
// Example:
//
//	fractal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	evaluatorsMu.Lock()
	bound := make([]GPUEvaluator, 0, len(evaluators))
	for e := range evaluators {
		bound = append(bound, e)
	}
	evaluatorsMu.Unlock()
	for _, e := range bound {
		propagateLogger(e, l)
	}
}

// Logger returns the current logger. Sub-packages call this to share the
// same configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by evaluators that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(e GPUEvaluator, l *slog.Logger) {
	if ls, ok := e.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// evaluators tracks evaluators owned by live renderers so SetLogger can
// reach them.
var (
	evaluatorsMu sync.Mutex
	evaluators   = map[GPUEvaluator]struct{}{}
)

func trackEvaluator(e GPUEvaluator) {
	evaluatorsMu.Lock()
	evaluators[e] = struct{}{}
	evaluatorsMu.Unlock()
	propagateLogger(e, Logger())
}

func untrackEvaluator(e GPUEvaluator) {
	evaluatorsMu.Lock()
	delete(evaluators, e)
	evaluatorsMu.Unlock()
}
