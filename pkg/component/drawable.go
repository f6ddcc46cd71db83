package component

import (
	"math"

	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/rendercore"
)

// Drawable is a pure-render leaf showing one static Asset. Its content is a
// *MatrixDrawable.
type Drawable struct {
	Base
	asset Asset
}

// NewDrawable returns a descriptor for asset.
func NewDrawable(asset Asset) *Drawable {
	return &Drawable{asset: asset}
}

// Asset returns the asset this descriptor draws.
func (d *Drawable) Asset() Asset { return d.asset }

func (d *Drawable) SimpleName() string              { return "Drawable" }
func (d *Drawable) MountType() rendercore.MountType { return rendercore.MountTypeDrawable }
func (d *Drawable) IsPureRender() bool              { return true }

func (d *Drawable) OnCreateMountContent(any) (rendercore.Content, error) {
	return NewMatrixDrawable(), nil
}

// OnBoundsDefined captures the drawable size for the next Bind.
func (d *Drawable) OnBoundsDefined(ctx *rendercore.Context, bounds geometry.Rect) {
	state := ctx.State()
	state.Width = bounds.Width()
	state.Height = bounds.Height()
}

func (d *Drawable) OnMount(_ *rendercore.Context, content rendercore.Content) {
	content.(*MatrixDrawable).Mount(d.asset)
}

func (d *Drawable) OnBind(ctx *rendercore.Context, content rendercore.Content) bool {
	state := ctx.State()
	content.(*MatrixDrawable).Bind(int(math.Round(state.Width)), int(math.Round(state.Height)))
	return true
}

func (d *Drawable) OnUnmount(_ *rendercore.Context, content rendercore.Content) {
	content.(*MatrixDrawable).Unmount()
}

// ShouldUpdate compares assets only.
func (d *Drawable) ShouldUpdate(previous Component, _ *rendercore.State, next Component, _ *rendercore.State) bool {
	return !AssetsEqual(assetOf(previous), assetOf(next))
}

func (d *Drawable) IsEquivalentTo(other Component) bool {
	if other == Component(d) {
		return true
	}
	o, ok := other.(*Drawable)
	if !ok || o == nil {
		return false
	}
	return AssetsEqual(d.asset, o.asset)
}

func assetOf(c Component) Asset {
	if d, ok := c.(*Drawable); ok && d != nil {
		return d.asset
	}
	return nil
}
