package raster

import "sync"

// step is one queued operation. prev is the chain's first unresolved error at
// the time the step starts; done must be called exactly once.
type step func(prev error, done func(error))

// enqueue appends s and starts the chain if it was idle.
func (img *Image) enqueue(s step) *Image {
	img.mu.Lock()
	start := img.enqueueLocked(s)
	img.mu.Unlock()
	if start {
		img.advance()
	}
	return img
}

// enqueueLocked appends s and reports whether the caller must call advance.
func (img *Image) enqueueLocked(s step) bool {
	img.steps = append(img.steps, s)
	if img.busy {
		return false
	}
	img.busy = true
	return true
}

// idleLocked reports whether no step is running or queued.
func (img *Image) idleLocked() bool {
	return !img.busy && len(img.steps) == 0
}

// advance runs the next queued step. The continuation of every step resumes
// the chain on a new goroutine, so a long chain never deepens the stack.
func (img *Image) advance() {
	img.mu.Lock()
	if len(img.steps) == 0 {
		img.busy = false
		img.mu.Unlock()
		return
	}
	s := img.steps[0]
	img.steps[0] = nil
	img.steps = img.steps[1:]
	prev := img.chainErr
	img.mu.Unlock()

	var once sync.Once
	s(prev, func(err error) {
		once.Do(func() {
			if err != nil {
				img.mu.Lock()
				if img.chainErr == nil {
					img.chainErr = err
				}
				img.mu.Unlock()
			}
			go img.advance()
		})
	})
}

// Then queues fn to run after every operation queued before it. fn receives
// the first error raised in the chain, a Load rejected since the last Then,
// or nil.
func (img *Image) Then(fn func(error)) *Image {
	return img.enqueue(func(prev error, done func(error)) {
		fn(img.observe(prev))
		done(nil)
	})
}

// observe returns prev, falling back to a pending rejection, and clears the
// rejection.
func (img *Image) observe(prev error) error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if prev == nil {
		prev = img.rejected
	}
	img.rejected = nil
	return prev
}

// Done returns a channel that receives the chain's first error, or nil, once
// every operation queued so far has completed.
func (img *Image) Done() <-chan error {
	ch := make(chan error, 1)
	img.Then(func(err error) { ch <- err })
	return ch
}
