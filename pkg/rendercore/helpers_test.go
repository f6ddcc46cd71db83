package rendercore

import "github.com/go-drift/mountcore/pkg/geometry"

// stubUnit is a minimal RenderUnit that counts calls.
type stubUnit struct {
	ct     ContentType
	kind   MountType
	calls  []string
	create func() (Content, error)
}

func (u *stubUnit) Name() string              { return "stub" }
func (u *stubUnit) ContentType() ContentType  { return u.ct }
func (u *stubUnit) MountType() MountType      { return u.kind }
func (u *stubUnit) IsPureRender() bool        { return true }
func (u *stubUnit) Mount(*Context, Content)   { u.calls = append(u.calls, "mount") }
func (u *stubUnit) Unbind(*Context, Content)  { u.calls = append(u.calls, "unbind") }
func (u *stubUnit) Unmount(*Context, Content) { u.calls = append(u.calls, "unmount") }

func (u *stubUnit) CreateContent(*Context) (Content, error) {
	if u.create != nil {
		return u.create()
	}
	return &struct{ n int }{}, nil
}

func (u *stubUnit) BoundsDefined(ctx *Context, bounds geometry.Rect) {
	ctx.State().Width = bounds.Width()
	ctx.State().Height = bounds.Height()
	u.calls = append(u.calls, "boundsDefined")
}

func (u *stubUnit) Bind(*Context, Content) bool {
	u.calls = append(u.calls, "bind")
	return true
}

func (u *stubUnit) ShouldUpdate(RenderUnit, *State, *State) bool {
	return false
}
