package rendercore

import (
	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/trace"
)

// ContentType identifies interchangeable content. Content released under a
// type may be handed to any unit of the same type.
type ContentType string

// Content is a live, mutable instance attached to a Host, such as a drawable
// or a view.
type Content any

// MountType classifies how a Host attaches content.
type MountType int

const (
	// MountTypeDrawable content is drawn by its host and has no children.
	MountTypeDrawable MountType = iota
	// MountTypeView content is a child view of its host.
	MountTypeView
)

func (t MountType) String() string {
	switch t {
	case MountTypeDrawable:
		return "drawable"
	case MountTypeView:
		return "view"
	default:
		return "unknown"
	}
}

// RenderUnit describes how the content of a tree node is created, mounted
// and bound. All nodes whose units share a ContentType can share content.
type RenderUnit interface {
	// Name is a short label used in trace sections and errors.
	Name() string
	// ContentType is the pool key for this unit's content.
	ContentType() ContentType
	// MountType tells the host how to attach the content.
	MountType() MountType
	// IsPureRender reports whether an unchanged unit may skip every
	// lifecycle call, even when its bounds moved.
	IsPureRender() bool

	// CreateContent allocates fresh content after a pool miss.
	CreateContent(ctx *Context) (Content, error)
	// BoundsDefined records resolved geometry in ctx.State before mount or
	// before a rebind.
	BoundsDefined(ctx *Context, bounds geometry.Rect)
	// Mount applies position-independent setup to content.
	Mount(ctx *Context, content Content)
	// Bind applies geometry-dependent state. It reports whether it applied
	// side effects to the content.
	Bind(ctx *Context, content Content) bool
	// Unbind reverses Bind.
	Unbind(ctx *Context, content Content)
	// Unmount reverses Mount, leaving the content reusable.
	Unmount(ctx *Context, content Content)

	// ShouldUpdate reports whether moving from previous to this unit needs
	// the content to be remounted. It is only called for units of the same
	// ContentType and MountType.
	ShouldUpdate(previous RenderUnit, previousState, nextState *State) bool
}

// State is the engine-owned record kept for each matching key. It outlives
// the units of individual generations and is written only through
// RenderUnit.BoundsDefined.
type State struct {
	// Bounds is the geometry most recently handed to BoundsDefined.
	Bounds geometry.Rect
	// Width and Height are the content size captured at BoundsDefined.
	Width  float64
	Height float64
	// Data holds unit-specific values captured at BoundsDefined.
	Data any
}

// Context is passed to every lifecycle call.
type Context struct {
	// Env is the opaque platform environment supplied through Options.
	Env any
	// Tracer receives lifecycle sections. Never nil inside a pass.
	Tracer trace.Tracer

	key   string
	state *State
}

// NewContext returns a context that is not tied to a mounted key, for use
// with Preallocate or in tests.
func NewContext(env any, tracer trace.Tracer) *Context {
	if tracer == nil {
		tracer = trace.Default()
	}
	return &Context{Env: env, Tracer: tracer, state: &State{}}
}

// Key returns the matching key of the node being processed.
func (c *Context) Key() string {
	return c.key
}

// State returns the per-key record. Units write it in BoundsDefined and read
// it in Bind.
func (c *Context) State() *State {
	return c.state
}
