package codec

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
)

// ErrPoolStopped is reported to callbacks whose work was submitted to, or
// still queued in, a stopped pool.
var ErrPoolStopped = errors.New("codec pool stopped")

type task struct {
	run  func()
	fail func(error)
}

// Pool runs decode and encode work on a fixed set of goroutines so that heavy
// pixel work never exceeds the configured parallelism. Results are delivered
// through completion callbacks invoked on the worker goroutine.
type Pool struct {
	codec   Codec
	workers int
	tasks   chan task
	logger  *slog.Logger

	mu        sync.RWMutex
	stopped   bool
	quit      chan struct{}
	waitGroup sync.WaitGroup
	stopOnce  sync.Once
}

// NewPool starts a pool of workers backed by c. A workers value below one
// selects runtime.GOMAXPROCS(0).
func NewPool(c Codec, workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if c == nil {
		c = Imaging{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pool{
		codec:   c,
		workers: workers,
		tasks:   make(chan task, workers*4),
		logger:  logger,
		quit:    make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.waitGroup.Add(1)
		go p.worker()
	}
	return p
}

var (
	defaultPoolOnce sync.Once
	defaultPool     *Pool
)

// DefaultPool returns a process-wide pool using the Imaging codec.
func DefaultPool() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(Imaging{}, 0, nil)
	})
	return defaultPool
}

// Workers reports the pool's parallelism.
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) worker() {
	defer p.waitGroup.Done()

	for {
		select {
		case <-p.quit:
			return
		case t := <-p.tasks:
			p.run(t)
		}
	}
}

func (p *Pool) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("codec task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	t.run()
}

// submit queues t, blocking while the queue is full.
func (p *Pool) submit(t task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		t.fail(ErrPoolStopped)
		return
	}
	p.tasks <- t
}

// Decode decodes data on a worker and calls fn with the result. fn is called
// exactly once, also when the decoder panics or the pool is stopped.
func (p *Pool) Decode(data []byte, fn func(*image.NRGBA, error)) {
	fail := func(err error) { fn(nil, &DecodeError{Err: err}) }
	go p.submit(task{
		fail: fail,
		run: func() {
			settled := false
			defer func() {
				if !settled {
					fail(fmt.Errorf("decoder panicked: %v", recover()))
				}
			}()
			img, err := p.codec.Decode(data)
			settled = true
			fn(img, err)
		},
	})
}

// Encode encodes img on a worker and calls fn with the result. img must not be
// mutated until fn runs.
func (p *Pool) Encode(img *image.NRGBA, opts Options, fn func([]byte, error)) {
	fail := func(err error) { fn(nil, &EncodeError{Format: opts.Format, Err: err}) }
	go p.submit(task{
		fail: fail,
		run: func() {
			settled := false
			defer func() {
				if !settled {
					fail(fmt.Errorf("encoder panicked: %v", recover()))
				}
			}()
			data, err := p.codec.Encode(img, opts)
			settled = true
			fn(data, err)
		},
	})
}

// Stop waits for running tasks, then fails everything still queued with
// ErrPoolStopped. Later submissions fail immediately.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		close(p.quit)
		p.waitGroup.Wait()

		for {
			select {
			case t := <-p.tasks:
				t.fail(ErrPoolStopped)
			default:
				return
			}
		}
	})
}
