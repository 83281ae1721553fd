package raster

import (
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/imgblend/internal/composite"
)

// Overlay queues an alpha-over composite of src onto img with src's top-left
// corner at (x, y). Pixels falling outside img are clipped.
//
// src does not need to be loaded yet: the overlay waits until src is Ready,
// so the chain stalls for as long as src is Empty or Loading. If src fails to
// load the overlay is skipped and the chain fails with ErrSourceFailed
// wrapping the decode error. If img itself is not Ready when the overlay runs,
// the chain fails with ErrNotReady. src is copied before painting, so
// overlaying an image onto itself is well defined.
func (img *Image) Overlay(src *Image, x, y int) *Image {
	return img.enqueue(func(prev error, done func(error)) {
		if prev != nil {
			done(nil)
			return
		}
		if src == nil {
			done(fmt.Errorf("%w: nil source", ErrSourceFailed))
			return
		}
		src.OnReady(func(err error) {
			if err != nil {
				done(fmt.Errorf("%w: %w", ErrSourceFailed, err))
				return
			}
			done(img.paint(src, x, y))
		})
	})
}

// OverlayBuffer loads data into a new source image, sharing img's options,
// and overlays it at (x, y).
func (img *Image) OverlayBuffer(data []byte, x, y int) *Image {
	src := FromBuffer(data, WithPool(img.settings.pool), WithLogger(img.settings.logger))
	return img.Overlay(src, x, y)
}

func (img *Image) paint(src *Image, x, y int) error {
	layer, err := src.snapshot()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceFailed, err)
	}
	dst, err := img.ready()
	if err != nil {
		return err
	}
	img.pixMu.Lock()
	composite.Over(dst, layer, x, y)
	img.pixMu.Unlock()
	return nil
}

// Placement positions an image within a Merge.
type Placement struct {
	Image *Image
	X, Y  int
}

// Merge returns a new image composed of layers painted in order, later layers
// on top, onto a transparent canvas the size of the first layer. The result is
// Loading until every layer is Ready and the composite has been built; it then
// becomes Ready, or Failed with ErrSourceFailed if any layer failed to load
// (ErrEmptyInput when layers is empty). No layer is modified.
func Merge(layers []Placement, opts ...Option) *Image {
	out := New(opts...)
	layers = append([]Placement(nil), layers...)

	out.mu.Lock()
	out.state = StateLoading
	start := out.enqueueLocked(func(_ error, done func(error)) {
		if len(layers) == 0 {
			done(out.settle(nil, ErrEmptyInput))
			return
		}
		images := make([]*Image, len(layers))
		for i, l := range layers {
			images[i] = l.Image
		}
		whenAllReady(images, func(err error) {
			if err != nil {
				done(out.settle(nil, fmt.Errorf("%w: %w", ErrSourceFailed, err)))
				return
			}
			pix, err := mergeSnapshots(layers)
			done(out.settle(pix, err))
		})
	})
	out.mu.Unlock()
	if start {
		out.advance()
	}
	return out
}

func mergeSnapshots(layers []Placement) (*image.NRGBA, error) {
	flat := make([]composite.Layer, len(layers))
	for i, l := range layers {
		pix, err := l.Image.snapshot()
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrSourceFailed, i, err)
		}
		flat[i] = composite.Layer{Image: pix, X: l.X, Y: l.Y}
	}
	return composite.Merge(flat), nil
}

// whenAllReady calls fn once every image has settled. fn receives the error
// of the lowest-indexed image that failed, or nil.
func whenAllReady(images []*Image, fn func(error)) {
	var (
		mu        sync.Mutex
		remaining = len(images)
		errs      = make([]error, len(images))
	)
	for i, im := range images {
		if im == nil {
			errs[i] = fmt.Errorf("layer %d: nil image", i)
			mu.Lock()
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				fn(firstError(errs))
			}
			continue
		}
		im.OnReady(func(err error) {
			mu.Lock()
			errs[i] = err
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				fn(firstError(errs))
			}
		})
	}
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
