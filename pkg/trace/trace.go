// Package trace is the span-based instrumentation boundary of the mount
// engine.
//
// The engine never depends on a tracing backend. It calls BeginSection and
// EndSection symmetrically around each lifecycle dispatch through
// WithSection, which closes the section on every exit path including panics.
// Noop can be substituted at any time without changing behavior.
//
// Register a tracer at startup:
//
//	trace.SetDefault(myTracer)
//
// or pass one to a single engine through rendercore.Options.
package trace

import "sync"

// Tracer receives named sections.
type Tracer interface {
	// IsTracing reports whether sections should be emitted at all.
	IsTracing() bool
	// BeginSection opens a named section.
	BeginSection(name string)
	// EndSection closes the most recently opened section.
	EndSection()
}

// Noop is a Tracer that records nothing.
type Noop struct{}

func (Noop) IsTracing() bool     { return false }
func (Noop) BeginSection(string) {}
func (Noop) EndSection()         {}

var (
	defaultTracer Tracer = Noop{}
	tracerMu      sync.RWMutex
)

// SetDefault registers the process-wide tracer. Nil restores Noop.
func SetDefault(t Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	if t == nil {
		defaultTracer = Noop{}
		return
	}
	defaultTracer = t
}

// Default returns the process-wide tracer.
func Default() Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	return defaultTracer
}

// WithSection runs fn inside a section named name. The section is closed when
// fn returns or panics. A nil tracer falls back to Default.
func WithSection(t Tracer, name string, fn func()) {
	if t == nil {
		t = Default()
	}
	if !t.IsTracing() {
		fn()
		return
	}
	t.BeginSection(name)
	defer t.EndSection()
	fn()
}
