package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/ironsheep/imgblend/internal/codec"
)

// State is the lifecycle position of an Image.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures an Image.
type Option func(*settings)

type settings struct {
	pool   *codec.Pool
	logger *slog.Logger
}

// WithPool runs decode and encode work on p instead of codec.DefaultPool.
func WithPool(p *codec.Pool) Option {
	return func(s *settings) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.pool == nil {
		s.pool = codec.DefaultPool()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Image owns a decoded RGBA pixel buffer and the operations queued against it.
//
// Operations (Load, Overlay, Then, AsPNG, AsJPEG) form a chain: they run one
// at a time, in call order, each starting after the previous one completed.
// The first failure in the chain is carried forward: later overlays are
// skipped and later encodes report it, until a Load succeeds.
//
// Image is safe for concurrent use.
type Image struct {
	settings settings

	mu      sync.Mutex
	state   State
	pix     *image.NRGBA
	width   int
	height  int
	loadErr error
	waiters []func(error)

	steps    []step
	busy     bool
	chainErr error
	// rejected holds a refused Load until the next Then observes it. It
	// never fails later steps.
	rejected error

	// pixMu guards the contents of pix while an overlay paints into it.
	pixMu sync.RWMutex
}

// New returns an Empty image.
func New(opts ...Option) *Image {
	return &Image{settings: newSettings(opts)}
}

// FromBuffer returns a new image that starts loading data immediately.
func FromBuffer(data []byte, opts ...Option) *Image {
	return New(opts...).Load(data)
}

// State reports the current lifecycle state.
func (img *Image) State() State {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.state
}

// Width is zero until the image is Ready.
func (img *Image) Width() int {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.width
}

// Height is zero until the image is Ready.
func (img *Image) Height() int {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.height
}

// Err returns the decode error of a Failed image, nil otherwise.
func (img *Image) Err() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.state != StateFailed {
		return nil
	}
	return img.loadErr
}

func (img *Image) String() string {
	img.mu.Lock()
	defer img.mu.Unlock()
	return fmt.Sprintf("Image %dx%d", img.width, img.height)
}

// OnReady registers fn to run once when the image finishes loading. If the
// image is already Ready or Failed, fn runs immediately on the calling
// goroutine. fn receives nil on success and the decode error on failure.
// Callbacks run in registration order.
func (img *Image) OnReady(fn func(error)) {
	img.mu.Lock()
	switch img.state {
	case StateReady:
		img.mu.Unlock()
		fn(nil)
	case StateFailed:
		err := img.loadErr
		img.mu.Unlock()
		fn(err)
	default:
		img.waiters = append(img.waiters, fn)
		img.mu.Unlock()
	}
}

// Wait blocks until the image is Ready or Failed, or ctx is done.
func (img *Image) Wait(ctx context.Context) error {
	ch := make(chan error, 1)
	img.OnReady(func(err error) { ch <- err })
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pixels returns a copy of the RGBA buffer, width*height*4 bytes row-major.
func (img *Image) Pixels() ([]byte, error) {
	pix, err := img.ready()
	if err != nil {
		return nil, err
	}
	img.pixMu.RLock()
	defer img.pixMu.RUnlock()
	out := make([]byte, len(pix.Pix))
	copy(out, pix.Pix)
	return out, nil
}

// At returns the pixel at (x, y).
func (img *Image) At(x, y int) (color.NRGBA, error) {
	pix, err := img.ready()
	if err != nil {
		return color.NRGBA{}, err
	}
	if !(image.Point{X: x, Y: y}).In(pix.Rect) {
		return color.NRGBA{}, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}
	img.pixMu.RLock()
	defer img.pixMu.RUnlock()
	return pix.NRGBAAt(x, y), nil
}

// ready returns the current buffer, or ErrNotReady.
func (img *Image) ready() (*image.NRGBA, error) {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.state != StateReady {
		return nil, fmt.Errorf("%w: image is %s", ErrNotReady, img.state)
	}
	return img.pix, nil
}

// snapshot copies the current pixels so they can be painted elsewhere
// without holding this image's locks.
func (img *Image) snapshot() (*image.NRGBA, error) {
	pix, err := img.ready()
	if err != nil {
		return nil, err
	}
	img.pixMu.RLock()
	defer img.pixMu.RUnlock()
	out := &image.NRGBA{
		Pix:    make([]byte, len(pix.Pix)),
		Stride: pix.Stride,
		Rect:   pix.Rect,
	}
	copy(out.Pix, pix.Pix)
	return out, nil
}
