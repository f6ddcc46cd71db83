package component

import (
	"image"
	"image/color"
	"reflect"

	"golang.org/x/image/draw"
)

// Asset is static drawable data, such as a bitmap or a solid color.
type Asset interface {
	// Draw renders the asset into r of dst, scaled to fill it.
	Draw(dst draw.Image, r image.Rectangle)
	// Equal reports whether other renders identically.
	Equal(other Asset) bool
}

// ImageAsset draws an image scaled to the target rectangle.
type ImageAsset struct {
	Image image.Image
	// Scaler defaults to draw.BiLinear.
	Scaler draw.Scaler
}

// NewImageAsset returns an asset for img.
func NewImageAsset(img image.Image) *ImageAsset {
	return &ImageAsset{Image: img}
}

func (a *ImageAsset) Draw(dst draw.Image, r image.Rectangle) {
	if a.Image == nil || r.Empty() {
		return
	}
	scaler := a.Scaler
	if scaler == nil {
		scaler = draw.BiLinear
	}
	scaler.Scale(dst, r, a.Image, a.Image.Bounds(), draw.Over, nil)
}

// Equal compares image identity; pixel data is never compared.
func (a *ImageAsset) Equal(other Asset) bool {
	o, ok := other.(*ImageAsset)
	if !ok {
		return false
	}
	if a == o {
		return true
	}
	return sameValue(a.Image, o.Image) && sameValue(a.Scaler, o.Scaler)
}

// ColorAsset fills the target rectangle with a single color.
type ColorAsset struct {
	Color color.Color
}

func (a ColorAsset) Draw(dst draw.Image, r image.Rectangle) {
	if a.Color == nil {
		return
	}
	draw.Draw(dst, r, image.NewUniform(a.Color), image.Point{}, draw.Src)
}

// Equal compares the premultiplied RGBA values.
func (a ColorAsset) Equal(other Asset) bool {
	o, ok := other.(ColorAsset)
	if !ok {
		return false
	}
	if a.Color == nil || o.Color == nil {
		return a.Color == nil && o.Color == nil
	}
	r1, g1, b1, a1 := a.Color.RGBA()
	r2, g2, b2, a2 := o.Color.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

// AssetsEqual treats two nil assets as equal.
func AssetsEqual(a, b Asset) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
