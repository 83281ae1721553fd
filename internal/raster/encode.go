package raster

import (
	"context"
	"fmt"

	"github.com/ironsheep/imgblend/internal/codec"
)

// AsPNG queues a PNG encode of the current pixels. fn receives the encoded
// bytes, ErrNotReady if the image is not Ready when the encode runs, or the
// chain's earlier error. On a Failed image the error matches both
// ErrNotReady and the load error.
func (img *Image) AsPNG(opts codec.PNGOptions, fn func([]byte, error)) *Image {
	return img.encode(codec.Options{Format: codec.PNG, PNG: opts}, fn)
}

// AsJPEG queues a JPEG encode of the current pixels. Alpha is discarded.
func (img *Image) AsJPEG(opts codec.JPEGOptions, fn func([]byte, error)) *Image {
	return img.encode(codec.Options{Format: codec.JPEG, JPEG: opts}, fn)
}

// As queues an encode in the format selected by opts.
func (img *Image) As(opts codec.Options, fn func([]byte, error)) *Image {
	return img.encode(opts, fn)
}

func (img *Image) encode(opts codec.Options, fn func([]byte, error)) *Image {
	return img.enqueue(func(prev error, done func(error)) {
		if prev != nil {
			if _, err := img.ready(); err != nil {
				prev = fmt.Errorf("%w: %w", ErrNotReady, prev)
			}
			fn(nil, prev)
			done(nil)
			return
		}
		pix, err := img.ready()
		if err != nil {
			fn(nil, err)
			done(err)
			return
		}
		// Steps on this image are serialized, so nothing paints into pix
		// until done is called.
		img.settings.pool.Encode(pix, opts, func(data []byte, err error) {
			fn(data, err)
			done(err)
		})
	})
}

// EncodePNG queues a PNG encode and waits for its result.
func (img *Image) EncodePNG(ctx context.Context, opts codec.PNGOptions) ([]byte, error) {
	return img.EncodeAs(ctx, codec.Options{Format: codec.PNG, PNG: opts})
}

// EncodeJPEG queues a JPEG encode and waits for its result.
func (img *Image) EncodeJPEG(ctx context.Context, opts codec.JPEGOptions) ([]byte, error) {
	return img.EncodeAs(ctx, codec.Options{Format: codec.JPEG, JPEG: opts})
}

// EncodeAs queues an encode in the format selected by opts and waits for its
// result. Cancelling ctx abandons the wait, not the encode.
func (img *Image) EncodeAs(ctx context.Context, opts codec.Options) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	img.encode(opts, func(data []byte, err error) {
		ch <- result{data, err}
	})
	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
