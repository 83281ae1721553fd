package composite

import (
	"image"
	"image/color"
	"testing"
)

func TestMerge_Order(t *testing.T) {
	base := filled(4, 4, color.NRGBA{0, 0, 0, 255})
	red := filled(2, 2, color.NRGBA{255, 0, 0, 255})
	green := filled(2, 2, color.NRGBA{0, 255, 0, 255})

	out := Merge([]Layer{
		{Image: base},
		{Image: red, X: 0, Y: 0},
		{Image: green, X: 1, Y: 1},
	})

	if out.Rect != image.Rect(0, 0, 4, 4) {
		t.Fatalf("bounds: got %v, want the first layer's size", out.Rect)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("(0,0): got %v, want red", got)
	}
	// green was painted after red, so it wins where they overlap
	if got := out.NRGBAAt(1, 1); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("(1,1): got %v, want green", got)
	}
	if got := out.NRGBAAt(3, 3); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("(3,3): got %v, want black", got)
	}
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	base := filled(2, 2, color.NRGBA{5, 5, 5, 255})
	top := filled(2, 2, color.NRGBA{250, 250, 250, 255})

	out := Merge([]Layer{{Image: base}, {Image: top}})

	if base.NRGBAAt(0, 0) != (color.NRGBA{5, 5, 5, 255}) {
		t.Error("Merge modified the base layer")
	}
	if &out.Pix[0] == &base.Pix[0] {
		t.Error("Merge returned an aliased buffer")
	}
}

func TestMerge_FirstLayerOffset(t *testing.T) {
	base := filled(2, 2, color.NRGBA{9, 9, 9, 255})

	out := Merge([]Layer{{Image: base, X: 1, Y: 0}})

	if got := out.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("(0,0) should stay transparent, got %v", got)
	}
	if got := out.NRGBAAt(1, 0); got != (color.NRGBA{9, 9, 9, 255}) {
		t.Errorf("(1,0): got %v", got)
	}
}

func TestMerge_Empty(t *testing.T) {
	if Merge(nil) != nil {
		t.Error("Merge(nil) should return nil")
	}
	if Merge([]Layer{{}}) != nil {
		t.Error("Merge with nil first image should return nil")
	}
}

func TestOpaque(t *testing.T) {
	if !Opaque(filled(3, 3, color.NRGBA{1, 1, 1, 255})) {
		t.Error("fully opaque image reported as translucent")
	}
	img := filled(3, 3, color.NRGBA{1, 1, 1, 255})
	img.SetNRGBA(2, 2, color.NRGBA{1, 1, 1, 254})
	if Opaque(img) {
		t.Error("image with one translucent pixel reported as opaque")
	}
	if Opaque(nil) {
		t.Error("nil image reported as opaque")
	}
}
