package component

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/go-drift/mountcore/pkg/geometry"
)

// MatrixDrawable is pooled drawable content. Mount assigns an asset, Bind
// rasterizes it at the bound size and the host positions it with SetBounds.
type MatrixDrawable struct {
	asset  Asset
	raster *image.RGBA
	bounds geometry.Rect
	width  int
	height int
	binds  int
}

// NewMatrixDrawable returns empty content.
func NewMatrixDrawable() *MatrixDrawable {
	return &MatrixDrawable{}
}

// Mount assigns the asset to draw.
func (m *MatrixDrawable) Mount(asset Asset) {
	m.asset = asset
}

// Bind rasterizes the asset scaled to width x height. The raster buffer is
// reused when the size is unchanged.
func (m *MatrixDrawable) Bind(width, height int) {
	m.binds++
	m.rasterize(width, height)
}

func (m *MatrixDrawable) rasterize(width, height int) {
	m.width, m.height = width, height
	if m.asset == nil || width <= 0 || height <= 0 {
		m.raster = nil
		return
	}
	r := image.Rect(0, 0, width, height)
	if m.raster == nil || m.raster.Bounds() != r {
		m.raster = image.NewRGBA(r)
	} else {
		clear(m.raster.Pix)
	}
	m.asset.Draw(m.raster, r)
}

// Unmount drops the asset and raster so the content can be pooled.
func (m *MatrixDrawable) Unmount() {
	m.asset = nil
	m.raster = nil
	m.width, m.height = 0, 0
}

// SetBounds records where the host shows the drawable. A bound raster is
// redrawn when the size changes, since equivalent drawables skip Bind.
func (m *MatrixDrawable) SetBounds(bounds geometry.Rect) {
	m.bounds = bounds
	if m.raster == nil {
		return
	}
	w, h := int(math.Round(bounds.Width())), int(math.Round(bounds.Height()))
	if w != m.width || h != m.height {
		m.rasterize(w, h)
	}
}

func (m *MatrixDrawable) Bounds() geometry.Rect { return m.bounds }
func (m *MatrixDrawable) Asset() Asset          { return m.asset }
func (m *MatrixDrawable) Raster() *image.RGBA   { return m.raster }
func (m *MatrixDrawable) Size() (int, int)      { return m.width, m.height }

// Binds counts Bind calls over the content's lifetime, across pool reuse.
func (m *MatrixDrawable) Binds() int { return m.binds }

// Draw composites the raster onto dst at the drawable's bounds origin.
func (m *MatrixDrawable) Draw(dst draw.Image) {
	if m.raster == nil {
		return
	}
	origin := image.Pt(int(m.bounds.Left), int(m.bounds.Top))
	r := m.raster.Bounds().Add(origin)
	draw.Draw(dst, r, m.raster, image.Point{}, draw.Over)
}
