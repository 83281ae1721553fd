// Package composite implements alpha compositing over *image.NRGBA buffers.
//
// All functions are pure pixel math without I/O or locking. The
// caller owns every buffer passed in.
package composite

import "image"

// Over paints src onto dst with its top-left corner at (x, y), modifying dst
// in place. Pixels of src that fall outside dst are clipped.
//
// With a = srcA/255 each colour channel becomes src*a + dst*(1-a) and alpha
// becomes srcA + dstA*(1-a), computed in integers and rounded to nearest. A
// fully opaque source pixel therefore replaces the destination exactly and a
// fully transparent one leaves it untouched.
func Over(dst, src *image.NRGBA, x, y int) {
	if dst == nil || src == nil {
		return
	}
	area, ok := Clip(dst.Rect, src.Rect, x, y)
	if !ok {
		return
	}

	w := area.Dx()
	for dy := area.Min.Y; dy < area.Max.Y; dy++ {
		sy := src.Rect.Min.Y + (dy - y)
		sx := src.Rect.Min.X + (area.Min.X - x)
		so := src.PixOffset(sx, sy)
		do := dst.PixOffset(area.Min.X, dy)
		blendRow(dst.Pix[do:do+w*4], src.Pix[so:so+w*4])
	}
}

// Clip returns the region of dst covered by src when src's origin is placed
// at (x, y) in dst coordinates. ok is false when nothing overlaps.
func Clip(dst, src image.Rectangle, x, y int) (area image.Rectangle, ok bool) {
	placed := image.Rect(x, y, x+src.Dx(), y+src.Dy())
	area = dst.Intersect(placed)
	return area, !area.Empty()
}

func blendRow(d, s []byte) {
	for i := 0; i+3 < len(s); i += 4 {
		sa := uint32(s[i+3])
		switch sa {
		case 0:
			continue
		case 255:
			copy(d[i:i+4], s[i:i+4])
			continue
		}
		inv := 255 - sa
		d[i+0] = mix(s[i+0], d[i+0], sa, inv)
		d[i+1] = mix(s[i+1], d[i+1], sa, inv)
		d[i+2] = mix(s[i+2], d[i+2], sa, inv)
		d[i+3] = uint8((sa*255 + uint32(d[i+3])*inv + 127) / 255)
	}
}

func mix(s, d uint8, sa, inv uint32) uint8 {
	return uint8((uint32(s)*sa + uint32(d)*inv + 127) / 255)
}
