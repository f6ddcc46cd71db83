package rendercore

import (
	"time"

	"github.com/go-drift/mountcore/pkg/errors"
	"github.com/go-drift/mountcore/pkg/geometry"
)

type lifecycleState int

const (
	stateCreated lifecycleState = iota
	stateMounted
	stateBound
	stateUnmounted
	stateReleased
)

func (s lifecycleState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateMounted:
		return "mounted"
	case stateBound:
		return "bound"
	case stateUnmounted:
		return "unmounted"
	case stateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// MountItem binds a TreeNode to its mounted content and the Host that shows
// it. Exactly one MountItem exists per live key. MountState owns every
// MountItem; hosts only hold references for traversal.
type MountItem struct {
	node      *TreeNode
	content   Content
	host      Host
	state     State
	lifecycle lifecycleState
	applied   bool
	mountData any
}

func newMountItem(node *TreeNode, content Content) *MountItem {
	return &MountItem{
		node:    node,
		content: content,
		state:   State{Bounds: node.Bounds()},
	}
}

// Content returns the mounted content, or nil once released.
func (m *MountItem) Content() Content {
	return m.content
}

// Host returns the host the content is attached to, or nil while detached.
func (m *MountItem) Host() Host {
	return m.host
}

// IsBound reports whether the content is between Bind and Unbind.
func (m *MountItem) IsBound() bool {
	return m.lifecycle == stateBound
}

// IsMounted reports whether the content is between Mount and Unmount.
func (m *MountItem) IsMounted() bool {
	return m.lifecycle == stateMounted || m.lifecycle == stateBound
}

// Node returns the TreeNode of the most recent generation.
func (m *MountItem) Node() *TreeNode {
	return m.node
}

// Key returns the matching key.
func (m *MountItem) Key() string {
	return m.node.Key()
}

// Unit returns the current render unit.
func (m *MountItem) Unit() RenderUnit {
	return m.node.Unit()
}

// MountType returns the current unit's mount type.
func (m *MountItem) MountType() MountType {
	return m.node.Unit().MountType()
}

// State returns a copy of the per-key record.
func (m *MountItem) State() State {
	return m.state
}

// BindApplied reports what the last Bind returned.
func (m *MountItem) BindApplied() bool {
	return m.applied
}

// MountData returns host-specific attachment bookkeeping.
func (m *MountItem) MountData() any {
	return m.mountData
}

// SetMountData stores host-specific attachment bookkeeping.
func (m *MountItem) SetMountData(data any) {
	m.mountData = data
}

func (m *MountItem) update(node *TreeNode) {
	m.node = node
}

func (m *MountItem) defineBounds(ctx *Context, bounds geometry.Rect) {
	if m.lifecycle == stateBound || m.lifecycle == stateReleased {
		m.violation("boundsDefined")
	}
	m.state.Bounds = bounds
	m.Unit().BoundsDefined(ctx, bounds)
}

func (m *MountItem) mount(ctx *Context) {
	if m.lifecycle != stateCreated && m.lifecycle != stateUnmounted {
		m.violation("mount")
	}
	m.Unit().Mount(ctx, m.content)
	m.lifecycle = stateMounted
}

func (m *MountItem) bind(ctx *Context) {
	if m.lifecycle != stateMounted {
		m.violation("bind")
	}
	m.applied = m.Unit().Bind(ctx, m.content)
	m.lifecycle = stateBound
}

func (m *MountItem) unbind(ctx *Context) {
	if m.lifecycle != stateBound {
		m.violation("unbind")
	}
	m.Unit().Unbind(ctx, m.content)
	m.lifecycle = stateMounted
}

func (m *MountItem) unmount(ctx *Context) {
	if m.lifecycle != stateMounted {
		m.violation("unmount")
	}
	m.Unit().Unmount(ctx, m.content)
	m.lifecycle = stateUnmounted
}

func (m *MountItem) attach(host Host) {
	if m.host != nil {
		m.violation("attach")
	}
	m.host = host
	host.Attach(m)
}

func (m *MountItem) detach() {
	if m.host == nil {
		return
	}
	m.host.Detach(m)
	m.host = nil
}

// release hands the content back to the pool. The content must be unbound,
// unmounted and detached.
func (m *MountItem) release(pool *ContentPool) {
	if m.lifecycle != stateUnmounted && m.lifecycle != stateCreated {
		m.violation("release")
	}
	if m.host != nil {
		m.violation("release")
	}
	content := m.content
	m.content = nil
	m.lifecycle = stateReleased
	m.mountData = nil
	pool.Release(m.Unit().ContentType(), content)
}

// drop discards content whose mount never completed instead of pooling it.
func (m *MountItem) drop() {
	if m.lifecycle != stateCreated || m.host != nil {
		m.violation("drop")
	}
	m.content = nil
	m.lifecycle = stateReleased
	m.mountData = nil
}

func (m *MountItem) violation(op string) {
	panic(&errors.LifecycleError{
		Op:         op,
		Key:        m.Key(),
		Unit:       m.Unit().Name(),
		State:      m.lifecycle.String(),
		StackTrace: errors.CaptureStack(),
		Timestamp:  time.Now(),
	})
}
