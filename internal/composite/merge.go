package composite

import "image"

// Layer places one image at an offset within a composition.
type Layer struct {
	Image *image.NRGBA
	X, Y  int
}

// Merge paints layers in order onto a transparent canvas the size of the
// first layer's image; later layers end up on top. The result is a fresh
// buffer and no input is modified. Merge returns nil when layers is empty or
// the first layer has no image.
func Merge(layers []Layer) *image.NRGBA {
	if len(layers) == 0 || layers[0].Image == nil {
		return nil
	}
	base := layers[0].Image.Rect
	out := image.NewNRGBA(image.Rect(0, 0, base.Dx(), base.Dy()))
	for _, l := range layers {
		Over(out, l.Image, l.X, l.Y)
	}
	return out
}

// Opaque reports whether every pixel of img has full alpha.
func Opaque(img *image.NRGBA) bool {
	if img == nil {
		return false
	}
	w := img.Rect.Dx() * 4
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		o := img.PixOffset(img.Rect.Min.X, y)
		row := img.Pix[o : o+w]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 255 {
				return false
			}
		}
	}
	return true
}
