package errors

import (
	"github.com/charmbracelet/log"
)

// LogHandler is an ErrorHandler that writes through a charmbracelet logger.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
	// Logger receives the records. Nil means log.Default().
	Logger *log.Logger
}

func (h *LogHandler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.Default()
}

// HandleError logs a MountError.
func (h *LogHandler) HandleError(err *MountError) {
	if err == nil {
		return
	}
	kv := []any{"op", err.Op, "kind", err.Kind.String(), "err", err.Err}
	if err.Key != "" {
		kv = append(kv, "key", err.Key)
	}
	if err.Unit != "" {
		kv = append(kv, "unit", err.Unit)
	}
	if h.Verbose {
		if err.PassID != "" {
			kv = append(kv, "pass", err.PassID)
		}
		if err.StackTrace != "" {
			kv = append(kv, "stack", err.StackTrace)
		}
	}
	h.logger().Error("mount error", kv...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	kv := []any{"value", err.Value}
	if err.Op != "" {
		kv = append(kv, "op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		kv = append(kv, "stack", err.StackTrace)
	}
	h.logger().Error("mount panic", kv...)
}

// HandleLifecycleError logs a LifecycleError.
func (h *LogHandler) HandleLifecycleError(err *LifecycleError) {
	if err == nil {
		return
	}
	kv := []any{"op", err.Op, "key", err.Key, "unit", err.Unit, "state", err.State}
	if h.Verbose && err.StackTrace != "" {
		kv = append(kv, "stack", err.StackTrace)
	}
	h.logger().Error("lifecycle violation", kv...)
}
