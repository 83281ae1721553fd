// Package raster implements the image lifecycle and compositing protocol.
//
// An Image starts Empty, becomes Loading when Load is called and ends up Ready
// (decoded pixels available) or Failed. Waiters registered with OnReady are
// notified exactly once per load, in registration order.
//
// # Operation chains
//
// Every operation on an Image is queued and runs after the operations queued
// before it, so calls can be chained without waiting:
//
//	raster.FromBuffer(base).
//	    OverlayBuffer(layer1, 0, 0).
//	    OverlayBuffer(layer2, 10, 10).
//	    AsPNG(codec.PNGOptions{}, func(data []byte, err error) {
//	        // ...
//	    })
//
// An overlay whose source has not finished loading simply waits for it. The
// first failure in a chain is carried through every later operation: overlays
// are skipped and encodes report the error. A successful Load clears it.
//
// # Compositing
//
// Overlay paints in place using alpha-over. Merge builds a new image from
// placed layers, and Blend stacks decoded buffers into PNG bytes. Pixel math
// lives in package composite.
//
// # Concurrency
//
// Decoding and encoding run on a codec.Pool. State transitions are guarded by
// a mutex and callbacks always run without it held. Continuations resume on
// fresh goroutines, so chain length never grows the stack. Started work is
// never cancelled; contexts only bound the blocking helpers (Wait, EncodePNG,
// Blend).
package raster
