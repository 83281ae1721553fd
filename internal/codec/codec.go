package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Format identifies an output encoding.
type Format int

const (
	// PNG is lossless and the default output format.
	PNG Format = iota
	// JPEG is lossy; alpha is discarded.
	JPEG
)

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a format name ("png", "jpeg", "jpg") to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	default:
		return PNG, fmt.Errorf("unsupported output format: %s", name)
	}
}

// DefaultJPEGQuality is used when JPEGOptions.Quality is zero.
const DefaultJPEGQuality = 80

// PNGOptions controls PNG output.
type PNGOptions struct {
	// Compression selects the zlib level. The zero value is png.DefaultCompression.
	Compression png.CompressionLevel
}

// JPEGOptions controls JPEG output.
type JPEGOptions struct {
	// Quality ranges from 1 to 100. Zero selects DefaultJPEGQuality.
	Quality int
}

// Options selects a format and its settings for Encode.
type Options struct {
	Format Format
	PNG    PNGOptions
	JPEG   JPEGOptions
}

// DecodeError reports malformed or unsupported compressed input.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode image: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that the encoder rejected a buffer or its size.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}
func (e *EncodeError) Unwrap() error { return e.Err }

// ErrEmptyBuffer is wrapped by a DecodeError when the input has no bytes.
var ErrEmptyBuffer = errors.New("empty buffer")

// Codec converts between compressed byte buffers and canonical RGBA pixels.
//
// Implementations must be safe for concurrent use.
type Codec interface {
	Decode(data []byte) (*image.NRGBA, error)
	Encode(img *image.NRGBA, opts Options) ([]byte, error)
}

// Imaging is the default Codec. Decoding goes through imaging.Decode, so any
// format registered with the image package is accepted; output is PNG or JPEG.
type Imaging struct{}

// Decode returns the decoded image as non-premultiplied RGBA anchored at (0,0).
func (Imaging) Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: ErrEmptyBuffer}
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return Canonical(img), nil
}

// Encode writes img in the requested format.
func (Imaging) Encode(img *image.NRGBA, opts Options) ([]byte, error) {
	if img == nil || img.Rect.Empty() {
		return nil, &EncodeError{Format: opts.Format, Err: errors.New("no pixels")}
	}
	if len(img.Pix) < img.Rect.Dx()*img.Rect.Dy()*4 {
		return nil, &EncodeError{Format: opts.Format, Err: fmt.Errorf("buffer of %d bytes too small for %dx%d", len(img.Pix), img.Rect.Dx(), img.Rect.Dy())}
	}

	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case PNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(opts.PNG.Compression))
	case JPEG:
		quality := opts.JPEG.Quality
		if quality == 0 {
			quality = DefaultJPEGQuality
		}
		if quality < 1 || quality > 100 {
			return nil, &EncodeError{Format: opts.Format, Err: fmt.Errorf("jpeg quality %d out of range 1-100", quality)}
		}
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return nil, &EncodeError{Format: opts.Format, Err: errors.New("unsupported format")}
	}
	if err != nil {
		return nil, &EncodeError{Format: opts.Format, Err: err}
	}
	return buf.Bytes(), nil
}

// Canonical converts any image to an *image.NRGBA whose bounds start at the
// origin. An *image.NRGBA that already qualifies is copied, never aliased.
func Canonical(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}
