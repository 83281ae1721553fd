package bench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrOutputLocked is returned when another run holds the output lock.
var ErrOutputLocked = errors.New("bench: output is locked by another run")

// WriteOutput writes data to path while holding path+".lock", so concurrent
// runs targeting the same file do not interleave.
func WriteOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return ErrOutputLocked
	}
	defer lock.Unlock() //nolint:errcheck

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
