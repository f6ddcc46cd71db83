// Package mounttest provides recording render units for testing code that
// drives a rendercore.MountState.
//
// A Log collects every lifecycle call in order:
//
//	log := mounttest.NewLog()
//	unit := &mounttest.Unit{Label: "Text", Type: "text", Log: log}
//	state := rendercore.NewMountState(rendercore.NewViewHost("root"), rendercore.Options{})
//	state.Mount(rendercore.MustRenderTree(rendercore.NewTreeNode("a", "", unit, bounds)))
//	log.Ops("a") // [create boundsDefined mount bind]
package mounttest

import (
	"fmt"
	"sync"

	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/rendercore"
)

// Lifecycle operation names recorded in a Log.
const (
	OpCreate        = "create"
	OpBoundsDefined = "boundsDefined"
	OpMount         = "mount"
	OpBind          = "bind"
	OpUnbind        = "unbind"
	OpUnmount       = "unmount"
)

// Call is one recorded lifecycle call.
type Call struct {
	Key     string
	Op      string
	Unit    string
	Bounds  geometry.Rect
	Content rendercore.Content
}

func (c Call) String() string {
	return fmt.Sprintf("%s:%s", c.Key, c.Op)
}

// Log records lifecycle calls from any number of units.
type Log struct {
	mu     sync.Mutex
	calls  []Call
	nextID int
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

func (l *Log) record(c Call) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func (l *Log) newID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	return l.nextID
}

// Calls returns a copy of every recorded call.
func (l *Log) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// Ops returns the operations recorded for key, in order.
func (l *Log) Ops(key string) []string {
	var ops []string
	for _, c := range l.Calls() {
		if c.Key == key {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

// Count returns how many times op was recorded for key.
func (l *Log) Count(key, op string) int {
	n := 0
	for _, c := range l.Calls() {
		if c.Key == key && c.Op == op {
			n++
		}
	}
	return n
}

// Len returns the number of recorded calls.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// Reset discards recorded calls. Content IDs keep increasing.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// FakeContent is the content created by Unit.
type FakeContent struct {
	ID      int
	Mounted bool
	Bound   bool
	Props   string
	Bounds  geometry.Rect
}

// SetBounds implements rendercore.BoundsSetter.
func (c *FakeContent) SetBounds(bounds geometry.Rect) {
	c.Bounds = bounds
}

// Unit is a configurable rendercore.RenderUnit that records every call.
type Unit struct {
	// Label is returned by Name. Defaults to the content type.
	Label string
	// Type is the content type. Defaults to "fake".
	Type rendercore.ContentType
	// Kind is the mount type.
	Kind rendercore.MountType
	// Pure marks the unit pure-render.
	Pure bool
	// Props is compared by ShouldUpdate: units with equal Props are
	// equivalent.
	Props string
	// Log receives calls. May be nil.
	Log *Log
	// CreateErr makes CreateContent fail.
	CreateErr error
	// PanicOn names an operation ("shouldUpdate", "mount", ...) that panics.
	PanicOn string
	// NewContent overrides content creation.
	NewContent func() rendercore.Content
}

var _ rendercore.RenderUnit = (*Unit)(nil)

func (u *Unit) Name() string {
	if u.Label != "" {
		return u.Label
	}
	return string(u.ContentType())
}

func (u *Unit) ContentType() rendercore.ContentType {
	if u.Type == "" {
		return "fake"
	}
	return u.Type
}

func (u *Unit) MountType() rendercore.MountType {
	return u.Kind
}

func (u *Unit) IsPureRender() bool {
	return u.Pure
}

func (u *Unit) CreateContent(ctx *rendercore.Context) (rendercore.Content, error) {
	u.maybePanic(OpCreate)
	if u.CreateErr != nil {
		u.record(ctx, OpCreate, nil)
		return nil, u.CreateErr
	}
	var content rendercore.Content
	if u.NewContent != nil {
		content = u.NewContent()
	} else {
		id := 0
		if u.Log != nil {
			id = u.Log.newID()
		}
		content = &FakeContent{ID: id}
	}
	u.record(ctx, OpCreate, content)
	return content, nil
}

func (u *Unit) BoundsDefined(ctx *rendercore.Context, bounds geometry.Rect) {
	u.maybePanic(OpBoundsDefined)
	st := ctx.State()
	st.Width = bounds.Width()
	st.Height = bounds.Height()
	if u.Log != nil {
		u.Log.record(Call{Key: ctx.Key(), Op: OpBoundsDefined, Unit: u.Name(), Bounds: bounds})
	}
}

func (u *Unit) Mount(ctx *rendercore.Context, content rendercore.Content) {
	u.maybePanic(OpMount)
	if c, ok := content.(*FakeContent); ok {
		c.Mounted = true
		c.Props = u.Props
	}
	u.record(ctx, OpMount, content)
}

func (u *Unit) Bind(ctx *rendercore.Context, content rendercore.Content) bool {
	u.maybePanic(OpBind)
	if c, ok := content.(*FakeContent); ok {
		c.Bound = true
	}
	u.record(ctx, OpBind, content)
	return true
}

func (u *Unit) Unbind(ctx *rendercore.Context, content rendercore.Content) {
	u.maybePanic(OpUnbind)
	if c, ok := content.(*FakeContent); ok {
		c.Bound = false
	}
	u.record(ctx, OpUnbind, content)
}

func (u *Unit) Unmount(ctx *rendercore.Context, content rendercore.Content) {
	u.maybePanic(OpUnmount)
	if c, ok := content.(*FakeContent); ok {
		c.Mounted = false
		c.Props = ""
	}
	u.record(ctx, OpUnmount, content)
}

func (u *Unit) ShouldUpdate(previous rendercore.RenderUnit, _, _ *rendercore.State) bool {
	u.maybePanic("shouldUpdate")
	prev, ok := previous.(*Unit)
	if !ok {
		return true
	}
	return prev.Props != u.Props
}

func (u *Unit) record(ctx *rendercore.Context, op string, content rendercore.Content) {
	if u.Log == nil {
		return
	}
	u.Log.record(Call{Key: ctx.Key(), Op: op, Unit: u.Name(), Bounds: ctx.State().Bounds, Content: content})
}

func (u *Unit) maybePanic(op string) {
	if u.PanicOn == op {
		panic(fmt.Sprintf("%s: %s failed", u.Name(), op))
	}
}

// HostUnit returns a view unit whose content is a *rendercore.ViewHost, so
// nodes parented to it attach inside it.
func HostUnit(label string, log *Log) *Unit {
	return &Unit{
		Label: label,
		Type:  "host",
		Kind:  rendercore.MountTypeView,
		Pure:  true,
		Props: label,
		Log:   log,
		NewContent: func() rendercore.Content {
			return rendercore.NewViewHost(label)
		},
	}
}

// Node is shorthand for rendercore.NewTreeNode with LTWH bounds.
func Node(key, parent string, unit rendercore.RenderUnit, left, top, width, height float64) *rendercore.TreeNode {
	return rendercore.NewTreeNode(key, parent, unit, geometry.RectFromLTWH(left, top, width, height))
}
