package component

import (
	"reflect"

	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/rendercore"
	"github.com/go-drift/mountcore/pkg/trace"
)

// ContentTyper lets a descriptor share content with descriptors of other
// concrete types. Without it the content type is the Go type name.
type ContentTyper interface {
	ContentType() rendercore.ContentType
}

// Unit adapts a Component to rendercore.RenderUnit.
type Unit struct {
	component   Component
	contentType rendercore.ContentType
}

var _ rendercore.RenderUnit = (*Unit)(nil)

// Of wraps c for use in a rendercore.TreeNode.
func Of(c Component) *Unit {
	if c == nil {
		panic("component: Of(nil)")
	}
	ct := rendercore.ContentType(reflect.TypeOf(c).String())
	if typer, ok := c.(ContentTyper); ok {
		ct = typer.ContentType()
	}
	return &Unit{component: c, contentType: ct}
}

// Component returns the wrapped descriptor.
func (u *Unit) Component() Component {
	return u.component
}

func (u *Unit) Name() string                        { return u.component.SimpleName() }
func (u *Unit) ContentType() rendercore.ContentType { return u.contentType }
func (u *Unit) MountType() rendercore.MountType     { return u.component.MountType() }
func (u *Unit) IsPureRender() bool                  { return u.component.IsPureRender() }

func (u *Unit) CreateContent(ctx *rendercore.Context) (content rendercore.Content, err error) {
	trace.WithSection(ctx.Tracer, "onCreateMountContent:"+u.Name(), func() {
		content, err = u.component.OnCreateMountContent(ctx.Env)
	})
	return content, err
}

func (u *Unit) BoundsDefined(ctx *rendercore.Context, bounds geometry.Rect) {
	trace.WithSection(ctx.Tracer, "onBoundsDefined:"+u.Name(), func() {
		u.component.OnBoundsDefined(ctx, bounds)
	})
}

func (u *Unit) Mount(ctx *rendercore.Context, content rendercore.Content) {
	trace.WithSection(ctx.Tracer, "onMount:"+u.Name(), func() {
		u.component.OnMount(ctx, content)
	})
}

func (u *Unit) Bind(ctx *rendercore.Context, content rendercore.Content) (applied bool) {
	trace.WithSection(ctx.Tracer, "onBind:"+u.Name(), func() {
		applied = u.component.OnBind(ctx, content)
	})
	return applied
}

func (u *Unit) Unbind(ctx *rendercore.Context, content rendercore.Content) {
	trace.WithSection(ctx.Tracer, "onUnbind:"+u.Name(), func() {
		u.component.OnUnbind(ctx, content)
	})
}

func (u *Unit) Unmount(ctx *rendercore.Context, content rendercore.Content) {
	trace.WithSection(ctx.Tracer, "onUnmount:"+u.Name(), func() {
		u.component.OnUnmount(ctx, content)
	})
}

// ShouldUpdate asks the next descriptor, after an identity check. A previous
// unit that is not a component always updates.
func (u *Unit) ShouldUpdate(previous rendercore.RenderUnit, previousState, nextState *rendercore.State) bool {
	prev, ok := previous.(*Unit)
	if !ok {
		return true
	}
	if identical(prev.component, u.component) {
		return false
	}
	return u.component.ShouldUpdate(prev.component, previousState, u.component, nextState)
}
