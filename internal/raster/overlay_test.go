package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/ironsheep/imgblend/internal/codec"
	"github.com/ironsheep/imgblend/internal/composite"
)

func checker(x, y int) color.NRGBA {
	if (x/4+y/4)%2 == 0 {
		return color.NRGBA{255, 255, 255, 255}
	}
	return color.NRGBA{0, 0, 0, 255}
}

func translucentDot(x, y int) color.NRGBA {
	return color.NRGBA{200, uint8(x * 10), uint8(y * 10), uint8(50 + x + y)}
}

// expectedOver composites the decoded pixels of the given buffers the way
// Overlay does.
func expectedOver(t *testing.T, base []byte, x, y int, layers ...[]byte) *image.NRGBA {
	t.Helper()
	dst := decodePNG(t, base)
	for _, l := range layers {
		composite.Over(dst, decodePNG(t, l), x, y)
	}
	return dst
}

func TestOverlay(t *testing.T) {
	base := encodePattern(t, 16, 16, checker)
	top := encodePattern(t, 8, 8, translucentDot)

	dst := loaded(t, base)
	dst.Overlay(loaded(t, top), 4, 4)
	if err := waitChain(t, dst); err != nil {
		t.Fatalf("overlay failed: %v", err)
	}

	want := expectedOver(t, base, 4, 4, top)
	got, _ := dst.Pixels()
	if !bytes.Equal(got, want.Pix) {
		t.Error("overlay result differs from alpha-over composite")
	}
	if dst.Width() != 16 || dst.Height() != 16 {
		t.Errorf("overlay changed dimensions to %dx%d", dst.Width(), dst.Height())
	}
}

func TestOverlay_DeferredSource(t *testing.T) {
	base := encodePattern(t, 12, 12, checker)
	top := encodePattern(t, 12, 12, translucentDot)

	a := loaded(t, base)
	b := New()
	a.Overlay(b, 0, 0)
	done := a.Done()

	select {
	case err := <-done:
		t.Fatalf("overlay completed before its source was loaded (err=%v)", err)
	case <-time.After(50 * time.Millisecond):
	}

	b.Load(top)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("deferred overlay failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("deferred overlay never completed")
	}

	if b.State() != StateReady {
		t.Errorf("source state: got %v, want ready", b.State())
	}
	want := expectedOver(t, base, 0, 0, top)
	got, _ := a.Pixels()
	if !bytes.Equal(got, want.Pix) {
		t.Error("deferred overlay result differs from compositing the final pixels")
	}
}

func TestOverlay_ChainedWhileLoading(t *testing.T) {
	base := encodePattern(t, 10, 10, checker)
	layers := [][]byte{
		encodePattern(t, 10, 10, translucentDot),
		encodeSolid(t, 5, 5, color.NRGBA{0, 0, 255, 128}),
		encodeSolid(t, 3, 3, color.NRGBA{0, 255, 0, 64}),
	}

	img := FromBuffer(base)
	for _, l := range layers {
		img.OverlayBuffer(l, 0, 0)
	}
	data, err := img.EncodePNG(testContext(t), codec.PNGOptions{})
	if err != nil {
		t.Fatalf("chained pipeline failed: %v", err)
	}

	want := expectedOver(t, base, 0, 0, layers...)
	got := decodePNG(t, data)
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("chained pipeline output differs from sequential composite")
	}
}

func TestOverlay_FailedSource(t *testing.T) {
	base := encodePattern(t, 8, 8, checker)
	dst := loaded(t, base)
	before, _ := dst.Pixels()

	dst.Overlay(FromBuffer([]byte("corrupt")), 0, 0)
	err := waitChain(t, dst)

	if !errors.Is(err, ErrSourceFailed) {
		t.Fatalf("chain error: got %v, want ErrSourceFailed", err)
	}
	var decodeErr *codec.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("chain error should wrap the decode error, got %v", err)
	}
	after, _ := dst.Pixels()
	if !bytes.Equal(before, after) {
		t.Error("failed overlay modified the destination")
	}
}

func TestOverlay_FailurePropagates(t *testing.T) {
	dst := loaded(t, encodePattern(t, 8, 8, checker))
	good := loaded(t, encodeSolid(t, 8, 8, color.NRGBA{255, 0, 0, 255}))
	before, _ := dst.Pixels()

	var encodeErr error
	dst.Overlay(FromBuffer([]byte("corrupt")), 0, 0).
		Overlay(good, 0, 0).
		AsPNG(codec.PNGOptions{}, func(_ []byte, err error) { encodeErr = err })
	waitChain(t, dst)

	if !errors.Is(encodeErr, ErrSourceFailed) {
		t.Errorf("encode after failed overlay: got %v, want ErrSourceFailed", encodeErr)
	}
	after, _ := dst.Pixels()
	if !bytes.Equal(before, after) {
		t.Error("overlay after a failure should have been skipped")
	}
}

func TestOverlay_DestinationNotReady(t *testing.T) {
	src := loaded(t, encodeSolid(t, 2, 2, color.NRGBA{1, 1, 1, 255}))

	err := waitChain(t, New().Overlay(src, 0, 0))
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("overlay onto empty image: got %v, want ErrNotReady", err)
	}
}

func TestOverlay_Self(t *testing.T) {
	data := encodePattern(t, 8, 8, translucentDot)
	img := loaded(t, data)

	img.Overlay(img, 2, 2)
	if err := waitChain(t, img); err != nil {
		t.Fatalf("self overlay failed: %v", err)
	}

	want := expectedOver(t, data, 2, 2, data)
	got, _ := img.Pixels()
	if !bytes.Equal(got, want.Pix) {
		t.Error("self overlay should composite a copy of the original pixels")
	}
}

func TestOverlay_Clipped(t *testing.T) {
	base := encodeSolid(t, 4, 4, color.NRGBA{0, 0, 0, 255})
	dst := loaded(t, base)

	dst.Overlay(loaded(t, encodeSolid(t, 4, 4, color.NRGBA{255, 255, 255, 255})), 3, -3)
	if err := waitChain(t, dst); err != nil {
		t.Fatalf("clipped overlay failed: %v", err)
	}

	c, _ := dst.At(3, 0)
	if c.R != 255 {
		t.Errorf("(3,0) should be covered, got %v", c)
	}
	c, _ = dst.At(2, 0)
	if c.R != 0 {
		t.Errorf("(2,0) should be untouched, got %v", c)
	}
	c, _ = dst.At(3, 1)
	if c.R != 0 {
		t.Errorf("(3,1) should be untouched, got %v", c)
	}
}

func TestMerge(t *testing.T) {
	base := encodeSolid(t, 10, 10, color.NRGBA{0, 0, 0, 255})
	red := encodeSolid(t, 4, 4, color.NRGBA{255, 0, 0, 255})
	blue := encodeSolid(t, 4, 4, color.NRGBA{0, 0, 255, 128})

	baseImg := loaded(t, base)
	redImg := New()
	out := Merge([]Placement{
		{Image: baseImg},
		{Image: redImg, X: 2, Y: 2},
		{Image: FromBuffer(blue), X: 4, Y: 4},
	})
	if out.State() != StateLoading {
		t.Errorf("merge result state before sources are ready: got %v, want loading", out.State())
	}
	redImg.Load(red)

	if err := out.Wait(testContext(t)); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if out.Width() != 10 || out.Height() != 10 {
		t.Errorf("merge dimensions: got %dx%d, want 10x10", out.Width(), out.Height())
	}

	want := decodePNG(t, base)
	composite.Over(want, decodePNG(t, red), 2, 2)
	composite.Over(want, decodePNG(t, blue), 4, 4)
	got, _ := out.Pixels()
	if !bytes.Equal(got, want.Pix) {
		t.Error("merge result differs from sequential composite")
	}

	// inputs are untouched
	untouched := decodePNG(t, base)
	basePix, _ := baseImg.Pixels()
	if !bytes.Equal(basePix, untouched.Pix) {
		t.Error("Merge modified its first layer")
	}
}

func TestMerge_Failures(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out := Merge(nil)
		if err := out.Wait(testContext(t)); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("got %v, want ErrEmptyInput", err)
		}
		if out.State() != StateFailed {
			t.Errorf("state: got %v, want failed", out.State())
		}
	})

	t.Run("failed layer", func(t *testing.T) {
		out := Merge([]Placement{
			{Image: FromBuffer(encodeSolid(t, 2, 2, color.NRGBA{0, 0, 0, 255}))},
			{Image: FromBuffer([]byte("corrupt"))},
		})
		err := out.Wait(testContext(t))
		if !errors.Is(err, ErrSourceFailed) {
			t.Fatalf("got %v, want ErrSourceFailed", err)
		}
		if _, err := out.Pixels(); !errors.Is(err, ErrNotReady) {
			t.Errorf("Pixels on failed merge: got %v, want ErrNotReady", err)
		}
	})

	t.Run("nil layer", func(t *testing.T) {
		out := Merge([]Placement{{Image: nil}})
		if err := out.Wait(testContext(t)); !errors.Is(err, ErrSourceFailed) {
			t.Fatalf("got %v, want ErrSourceFailed", err)
		}
	})
}
