// Package codec converts compressed image buffers to and from canonical RGBA
// pixels.
//
// Decoded pixels are always an *image.NRGBA (non-premultiplied, 4 bytes per
// pixel, row-major) with bounds anchored at (0,0). Input may be any format
// registered with the image package: PNG, JPEG and GIF through
// github.com/disintegration/imaging, plus BMP and WebP from golang.org/x/image.
// Output is PNG or JPEG.
//
// # Offloading
//
// Pool runs decode and encode calls on a bounded set of goroutines and reports
// each result through a single completion callback. Callers never share a
// pixel buffer with the pool while an encode is in flight.
//
// # Errors
//
// Decoding failures are reported as *DecodeError and encoding failures as
// *EncodeError. Both unwrap to the underlying cause.
package codec
