// Package errors provides structured error handling for the mount engine.
//
// Errors fall into two groups. Per-node failures (a content factory that
// fails) are reported as *MountError and leave the rest of the pass running.
// Fatal failures (lifecycle-order violations, invalid trees, comparison logic
// that panics) abort the reconciliation pass and unwind to its caller.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindLifecycle indicates a create/mount/bind/unbind/unmount ordering violation.
	KindLifecycle
	// KindCreate indicates a content factory failure.
	KindCreate
	// KindEquivalence indicates a failure inside descriptor comparison logic.
	KindEquivalence
	// KindInvalidTree indicates a render tree that cannot be reconciled.
	KindInvalidTree
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindLifecycle:
		return "lifecycle"
	case KindCreate:
		return "create"
	case KindEquivalence:
		return "equivalence"
	case KindInvalidTree:
		return "invalid-tree"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// IsFatal reports whether errors of this kind abort a reconciliation pass.
func (k ErrorKind) IsFatal() bool {
	return k != KindCreate
}

var (
	// ErrParentNotMounted is recorded for nodes whose parent failed to mount.
	ErrParentNotMounted = stderrors.New("parent node is not mounted")
	// ErrDuplicateKey is returned when a render tree holds the same key twice.
	ErrDuplicateKey = stderrors.New("duplicate matching key")
	// ErrParentOrder is returned when a child appears before its parent.
	ErrParentOrder = stderrors.New("child precedes its parent in tree order")
	// ErrEmptyKey is returned when a tree node has no matching key.
	ErrEmptyKey = stderrors.New("empty matching key")
	// ErrNilUnit is returned when a tree node has no render unit.
	ErrNilUnit = stderrors.New("tree node has no render unit")
	// ErrNilContent is returned when a content factory returns nothing.
	ErrNilContent = stderrors.New("content factory returned nil content")
)

// MountError represents a structured error raised while reconciling one node.
type MountError struct {
	// Op is the operation that failed (e.g., "rendercore.createContent").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Key is the matching key of the node, if applicable.
	Key string
	// Unit is the render unit name of the node, if applicable.
	Unit string
	// PassID identifies the reconciliation pass.
	PassID string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *MountError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s [%s] key=%s: %v", e.Op, e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// LifecycleError reports a lifecycle call made out of order, such as a bind
// without a prior mount or a second mount of the same key. Content left in
// that state cannot be reused safely, so the pass is abandoned.
type LifecycleError struct {
	// Op is the lifecycle step that was attempted ("mount", "bind", ...).
	Op string
	// Key is the matching key of the offending mount item.
	Key string
	// Unit is the render unit name.
	Unit string
	// State is the lifecycle state the item was in.
	State string
	// StackTrace contains the call stack at the time of the violation.
	StackTrace string
	// Timestamp is when the violation occurred.
	Timestamp time.Time
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("lifecycle violation: %s of %s (key=%s) while %s", e.Op, e.Unit, e.Key, e.State)
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "rendercore.Mount").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorHandler receives errors reported by the mount engine.
type ErrorHandler interface {
	// HandleError is called when a node fails to reconcile.
	HandleError(err *MountError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleLifecycleError is called when a lifecycle-order violation aborts a pass.
	HandleLifecycleError(err *LifecycleError)
}
