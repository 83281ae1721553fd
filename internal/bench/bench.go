// Package bench measures compositing throughput. A run pushes Iterations
// independent "load every layer, composite bottom to top, encode" pipelines
// through a queue.Queue and times the queue from Start until it drains.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/imgblend/internal/codec"
	"github.com/ironsheep/imgblend/internal/queue"
	"github.com/ironsheep/imgblend/internal/raster"
)

// Modes.
const (
	// ModeChain builds each pipeline from Image chaining: every layer is
	// loaded as its own Image and overlaid onto the base.
	ModeChain = "chain"
	// ModeBlend hands the layer buffers to raster.Blend. Output is always PNG.
	ModeBlend = "blend"
)

// ErrNoLayers is returned when Run is given nothing to composite.
var ErrNoLayers = errors.New("bench: no layers")

// Options configures a run.
type Options struct {
	Iterations  int
	Concurrency int
	Mode        string
	Encoding    codec.Options
	Pool        *codec.Pool
	Logger      *slog.Logger
}

// Result summarises a run.
type Result struct {
	ID          string
	Mode        string
	Iterations  int
	Concurrency int
	Layers      int
	Failures    int
	Elapsed     time.Duration
	BytesOut    int64
	// FirstOutput is the encoded result of iteration 0, if it succeeded.
	FirstOutput []byte
}

// PerSecond reports completed iterations per second of wall time.
func (r *Result) PerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Iterations) / r.Elapsed.Seconds()
}

type recorder struct {
	mu       sync.Mutex
	res      *Result
	firstErr error
}

func (rec *recorder) record(i int, data []byte, err error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if err != nil {
		rec.res.Failures++
		if rec.firstErr == nil {
			rec.firstErr = fmt.Errorf("iteration %d: %w", i, err)
		}
		return
	}
	rec.res.BytesOut += int64(len(data))
	if i == 0 {
		rec.res.FirstOutput = data
	}
}

// Run executes opts.Iterations pipelines over layers. The first layer is the
// base. The returned Result is non-nil whenever the run started; an error is
// also returned if ctx ended first or any iteration failed.
func Run(ctx context.Context, opts Options, layers [][]byte) (*Result, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	if opts.Iterations < 1 {
		return nil, fmt.Errorf("bench: iterations must be positive, got %d", opts.Iterations)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var rasterOpts []raster.Option
	if opts.Pool != nil {
		rasterOpts = append(rasterOpts, raster.WithPool(opts.Pool))
	}

	var pipeline func(i int, done func(int, []byte, error))
	switch opts.Mode {
	case ModeChain, "":
		opts.Mode = ModeChain
		pipeline = func(i int, done func(int, []byte, error)) {
			base := raster.FromBuffer(layers[0], rasterOpts...)
			for _, l := range layers[1:] {
				base.Overlay(raster.FromBuffer(l, rasterOpts...), 0, 0)
			}
			base.As(opts.Encoding, func(data []byte, err error) { done(i, data, err) })
		}
	case ModeBlend:
		pipeline = func(i int, done func(int, []byte, error)) {
			err := raster.BlendAsync(layers, func(data []byte, err error) { done(i, data, err) }, rasterOpts...)
			if err != nil {
				done(i, nil, err)
			}
		}
	default:
		return nil, fmt.Errorf("bench: unknown mode %q", opts.Mode)
	}

	rec := &recorder{res: &Result{
		ID:         uuid.NewString(),
		Mode:       opts.Mode,
		Iterations: opts.Iterations,
		Layers:     len(layers),
	}}

	q := queue.New(func(i int, done func()) {
		pipeline(i, func(i int, data []byte, err error) {
			rec.record(i, data, err)
			done()
		})
	}, queue.WithConcurrency(opts.Concurrency), queue.WithLogger(logger))
	rec.res.Concurrency = q.Concurrency()

	for i := 0; i < opts.Iterations; i++ {
		q.Enqueue(i, false)
	}

	logger.Info("bench started",
		"run_id", rec.res.ID,
		"mode", opts.Mode,
		"iterations", opts.Iterations,
		"concurrency", q.Concurrency(),
		"layers", len(layers),
	)
	start := time.Now()
	q.Start()
	waitErr := q.Wait(ctx)
	elapsed := time.Since(start)

	// Pipelines still in flight after a cancelled wait keep recording, so
	// the caller gets a copy.
	rec.mu.Lock()
	res := *rec.res
	firstErr := rec.firstErr
	rec.mu.Unlock()
	res.Elapsed = elapsed

	if waitErr != nil {
		return &res, fmt.Errorf("bench: %w", waitErr)
	}
	logger.Info("bench finished",
		"run_id", res.ID,
		"elapsed", elapsed,
		"per_second", res.PerSecond(),
		"failures", res.Failures,
	)
	if firstErr != nil {
		return &res, fmt.Errorf("bench: %d of %d iterations failed: %w", res.Failures, opts.Iterations, firstErr)
	}
	return &res, nil
}
