package component

import (
	"reflect"

	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/rendercore"
)

// Component is an immutable descriptor for one tree position.
type Component interface {
	// SimpleName labels trace sections and errors.
	SimpleName() string
	// MountType tells the host how to attach this descriptor's content.
	MountType() rendercore.MountType
	// IsPureRender reports whether an equivalent descriptor may skip every
	// lifecycle call.
	IsPureRender() bool

	// OnCreateMountContent allocates content on a pool miss.
	OnCreateMountContent(env any) (rendercore.Content, error)
	// OnBoundsDefined captures resolved geometry into ctx.State().
	OnBoundsDefined(ctx *rendercore.Context, bounds geometry.Rect)
	OnMount(ctx *rendercore.Context, content rendercore.Content)
	// OnBind reports whether it applied side effects to content.
	OnBind(ctx *rendercore.Context, content rendercore.Content) bool
	OnUnbind(ctx *rendercore.Context, content rendercore.Content)
	OnUnmount(ctx *rendercore.Context, content rendercore.Content)

	// ShouldUpdate reports whether going from previous to next requires
	// remounting content.
	ShouldUpdate(previous Component, previousState *rendercore.State, next Component, nextState *rendercore.State) bool
	// IsEquivalentTo reports whether other renders the same output. It must
	// be reflexive and false for a different concrete type.
	IsEquivalentTo(other Component) bool
}

// Base supplies default lifecycle callbacks. Embed it and implement
// SimpleName, MountType, OnCreateMountContent and IsEquivalentTo.
type Base struct{}

// IsPureRender returns false.
func (Base) IsPureRender() bool { return false }

func (Base) OnBoundsDefined(*rendercore.Context, geometry.Rect)  {}
func (Base) OnMount(*rendercore.Context, rendercore.Content)     {}
func (Base) OnBind(*rendercore.Context, rendercore.Content) bool { return false }
func (Base) OnUnbind(*rendercore.Context, rendercore.Content)    {}
func (Base) OnUnmount(*rendercore.Context, rendercore.Content)   {}

// ShouldUpdate always updates non-pure descriptors. Pure descriptors follow
// DefaultShouldUpdate.
func (Base) ShouldUpdate(previous Component, _ *rendercore.State, next Component, _ *rendercore.State) bool {
	if next == nil || !next.IsPureRender() {
		return true
	}
	return DefaultShouldUpdate(previous, next)
}

// DefaultShouldUpdate is the pure-render policy: update unless the two
// descriptors are equivalent.
func DefaultShouldUpdate(previous, next Component) bool {
	return !Equivalent(previous, next)
}

// Equivalent checks identity, then concrete type, then IsEquivalentTo.
func Equivalent(a, b Component) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if identical(a, b) {
		return true
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a.IsEquivalentTo(b)
}

// identical compares without panicking on descriptors holding
// non-comparable values.
func identical(a, b Component) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
