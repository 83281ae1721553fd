package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/imgblend/internal/codec"
)

// encodePattern builds a PNG whose pixels are produced by fn.
func encodePattern(t *testing.T, width, height int, fn func(x, y int) color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, fn(x, y))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// encodeSolid builds a PNG filled with c.
func encodeSolid(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	return encodePattern(t, width, height, func(int, int) color.NRGBA { return c })
}

// writeTempPNG writes data to a temp file removed at test cleanup.
func writeTempPNG(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "raster-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return f.Name()
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// loaded returns an image that has finished decoding data.
func loaded(t *testing.T, data []byte) *Image {
	t.Helper()
	img := FromBuffer(data)
	if err := img.Wait(testContext(t)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return img
}

// waitChain waits for every operation queued on img.
func waitChain(t *testing.T, img *Image) error {
	t.Helper()
	select {
	case err := <-img.Done():
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for image chain")
		return nil
	}
}

func decodePNG(t *testing.T, data []byte) *image.NRGBA {
	t.Helper()
	img := loaded(t, data)
	pix, err := img.snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	return pix
}

// gatedCodec blocks every decode until the gate is opened.
type gatedCodec struct {
	codec.Imaging
	gate chan struct{}
}

func (g gatedCodec) Decode(data []byte) (*image.NRGBA, error) {
	<-g.gate
	return g.Imaging.Decode(data)
}

// gatedPool returns a pool whose decodes wait until open is called.
func gatedPool(t *testing.T) (pool *codec.Pool, open func()) {
	t.Helper()
	gate := make(chan struct{})
	var once sync.Once
	open = func() { once.Do(func() { close(gate) }) }
	pool = codec.NewPool(gatedCodec{gate: gate}, 2, nil)
	t.Cleanup(func() {
		open()
		pool.Stop()
	})
	return pool, open
}
