package raster

import "errors"

var (
	// ErrNotReady is returned when an operation needs decoded pixels but the
	// image is Empty, Loading or Failed.
	ErrNotReady = errors.New("image not ready")

	// ErrAlreadyLoading rejects a Load issued while a previous Load is still
	// decoding.
	ErrAlreadyLoading = errors.New("image is already loading")

	// ErrSourceFailed wraps the load error of an overlay or merge source.
	ErrSourceFailed = errors.New("source image failed to load")

	// ErrInvalidArgument is returned by Blend when its input is not a sequence.
	ErrInvalidArgument = errors.New("first argument must be an array of buffers")

	// ErrEmptyInput is returned by Blend and Merge for an empty sequence.
	ErrEmptyInput = errors.New("first argument must contain at least one buffer")

	// ErrInvalidElement is returned by Blend when an element is not a buffer.
	ErrInvalidElement = errors.New("all elements must be buffers")
)
