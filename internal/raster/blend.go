package raster

import (
	"context"
	"fmt"
	"image/png"
	"reflect"

	"github.com/ironsheep/imgblend/internal/codec"
)

// blendPNG favours speed over size, as blend output is usually short-lived.
var blendPNG = codec.PNGOptions{Compression: png.BestSpeed}

// Buffers validates a blend input and returns its buffers. input must be a
// slice or array whose elements are all byte slices. A lone []byte is not a
// sequence of buffers.
func Buffers(input any) ([][]byte, error) {
	switch v := input.(type) {
	case [][]byte:
		if len(v) == 0 {
			return nil, ErrEmptyInput
		}
		return append([][]byte(nil), v...), nil
	case []any:
		if len(v) == 0 {
			return nil, ErrEmptyInput
		}
		out := make([][]byte, len(v))
		for i, e := range v {
			b, ok := e.([]byte)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrInvalidElement, i, e)
			}
			out[i] = b
		}
		return out, nil
	case []byte:
		return nil, fmt.Errorf("%w: got a single buffer", ErrInvalidArgument)
	}

	rv := reflect.ValueOf(input)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidArgument, input)
	}
	if rv.Len() == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]byte, rv.Len())
	for i := range out {
		e := rv.Index(i)
		if e.Kind() == reflect.Interface {
			e = e.Elem()
		}
		if !e.IsValid() || e.Kind() != reflect.Slice || e.Type().Elem().Kind() != reflect.Uint8 {
			return nil, fmt.Errorf("%w: element %d is %s", ErrInvalidElement, i, rv.Index(i).Type())
		}
		out[i] = e.Bytes()
	}
	return out, nil
}

// BlendAsync decodes every buffer, overlays them bottom to top onto the first
// one and encodes the result as PNG. Validation errors are returned
// immediately and fn is not called; otherwise fn receives the PNG or the first
// decode or encode error.
//
// When the topmost image is fully opaque and the size of the base, the result
// holds exactly the topmost image's pixels.
func BlendAsync(input any, fn func([]byte, error), opts ...Option) error {
	buffers, err := Buffers(input)
	if err != nil {
		return err
	}
	base := FromBuffer(buffers[0], opts...)
	for _, b := range buffers[1:] {
		base.OverlayBuffer(b, 0, 0)
	}
	base.AsPNG(blendPNG, fn)
	return nil
}

// Blend is the blocking form of BlendAsync.
func Blend(ctx context.Context, input any, opts ...Option) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	err := BlendAsync(input, func(data []byte, err error) {
		ch <- result{data, err}
	}, opts...)
	if err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
