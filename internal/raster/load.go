package raster

import "image"

// Load decodes data into the image asynchronously and returns the image for
// chaining.
//
// A Load issued while the image is Loading is rejected with
// ErrAlreadyLoading. The rejection is reported to the next Then or Done
// observer only; the image and later operations are unaffected. Reloading a
// Ready or Failed image is allowed. An Empty image, or one with nothing
// queued, becomes Loading before Load returns; otherwise it becomes Loading
// when the queued work ahead of it has finished.
//
// When decoding finishes the image is Ready (or Failed with a
// *codec.DecodeError) and every OnReady waiter is notified once.
func (img *Image) Load(data []byte) *Image {
	img.mu.Lock()
	if img.state == StateLoading {
		start := img.enqueueLocked(func(_ error, done func(error)) {
			img.mu.Lock()
			if img.rejected == nil {
				img.rejected = ErrAlreadyLoading
			}
			img.mu.Unlock()
			img.settings.logger.Warn("load rejected", "error", ErrAlreadyLoading)
			done(nil)
		})
		img.mu.Unlock()
		if start {
			img.advance()
		}
		return img
	}
	if img.state == StateEmpty || img.idleLocked() {
		img.state = StateLoading
	}
	start := img.enqueueLocked(func(_ error, done func(error)) {
		img.decode(data, done)
	})
	img.mu.Unlock()
	if start {
		img.advance()
	}
	return img
}

func (img *Image) decode(data []byte, done func(error)) {
	img.mu.Lock()
	img.state = StateLoading
	img.mu.Unlock()

	img.settings.pool.Decode(data, func(pix *image.NRGBA, err error) {
		done(img.settle(pix, err))
	})
}

// settle records the outcome of a load, notifies waiters and returns the
// load error. Waiters are detached under the lock so each registration fires
// exactly once.
func (img *Image) settle(pix *image.NRGBA, err error) error {
	img.mu.Lock()
	if err != nil || pix == nil {
		if err == nil {
			err = ErrNotReady
		}
		img.state = StateFailed
		img.pix = nil
		img.width, img.height = 0, 0
		img.loadErr = err
		img.chainErr = err
	} else {
		img.state = StateReady
		img.pix = pix
		img.width, img.height = pix.Rect.Dx(), pix.Rect.Dy()
		img.loadErr = nil
		img.chainErr = nil
	}
	waiters := img.waiters
	img.waiters = nil
	w, h := img.width, img.height
	img.mu.Unlock()

	if err != nil {
		img.settings.logger.Debug("image load failed", "error", err)
	} else {
		img.settings.logger.Debug("image loaded", "width", w, "height", h)
	}

	for _, fn := range waiters {
		fn(err)
	}
	return err
}
