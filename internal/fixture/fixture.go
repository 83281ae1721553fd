// Package fixture produces layer stacks for the benchmark and tests: either
// synthetic PNG layers or the image files of a directory.
package fixture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/noise"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/imgblend/internal/codec"
)

// Options controls synthetic layer generation.
type Options struct {
	Width  int
	Height int
	Count  int
	Seed   int64
}

// ErrNoImages is returned by FromDir when the directory holds too few images.
var ErrNoImages = errors.New("fixture: not enough images")

var extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Synthetic returns Count PNG-encoded layers. The first is an opaque
// textured gradient; the rest are translucent radial washes of the same
// size, so every layer contributes to a bottom-to-top composite.
func Synthetic(opts Options) ([][]byte, error) {
	if opts.Width < 1 || opts.Height < 1 || opts.Count < 1 {
		return nil, fmt.Errorf("fixture: invalid options %dx%d count %d", opts.Width, opts.Height, opts.Count)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	c := codec.Imaging{}
	out := make([][]byte, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		var img *image.NRGBA
		if i == 0 {
			img = Base(opts.Width, opts.Height, rng)
		} else {
			img = Wash(opts.Width, opts.Height, rng)
		}
		data, err := c.Encode(img, codec.Options{Format: codec.PNG})
		if err != nil {
			return nil, fmt.Errorf("fixture: encode layer %d: %w", i, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func randomColor(rng *rand.Rand) colorful.Color {
	return colorful.Hsv(rng.Float64()*360, 0.5+rng.Float64()*0.5, 0.6+rng.Float64()*0.4)
}

// Base renders an opaque horizontal Lab gradient between two random hues
// with a monochrome grain texture.
func Base(w, h int, rng *rand.Rand) *image.NRGBA {
	from, to := randomColor(rng), randomColor(rng)
	grain := grainTexture(w, h, rng)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		t := 0.0
		if w > 1 {
			t = float64(x) / float64(w-1)
		}
		r, g, b := from.BlendLab(to, t).Clamped().RGB255()
		for y := 0; y < h; y++ {
			// grain shifts each channel by at most +/-16
			d := int(grain.Pix[y*grain.Stride+x*4])/8 - 16
			img.SetNRGBA(x, y, color.NRGBA{shift(r, d), shift(g, d), shift(b, d), 255})
		}
	}
	return img
}

// Wash renders a translucent radial blob of one random colour centred at a
// random point. Alpha falls off linearly from the centre.
func Wash(w, h int, rng *rand.Rand) *image.NRGBA {
	r, g, b := randomColor(rng).RGB255()
	cx, cy := rng.Float64()*float64(w), rng.Float64()*float64(h)
	radius := math.Max(float64(w), float64(h)) * (0.3 + rng.Float64()*0.5)
	peak := 96 + rng.Float64()*128

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / radius
			if d >= 1 {
				continue
			}
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, uint8(peak * (1 - d))})
		}
	}
	return img
}

func grainTexture(w, h int, rng *rand.Rand) *image.RGBA {
	// noise.Generate may call NoiseFn from several goroutines.
	var mu sync.Mutex
	return noise.Generate(w, h, &noise.Options{
		Monochrome: true,
		NoiseFn: func() uint8 {
			mu.Lock()
			defer mu.Unlock()
			return uint8(rng.Intn(256))
		},
	})
}

func shift(v uint8, d int) uint8 {
	n := int(v) + d
	switch {
	case n < 0:
		return 0
	case n > 255:
		return 255
	}
	return uint8(n)
}

// FromDir reads the first count image files of dir in name order. The bytes
// are returned undecoded.
func FromDir(dir string, count int) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fixture: read dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	if len(names) < count {
		return nil, fmt.Errorf("%w: %s has %d, need %d", ErrNoImages, dir, len(names), count)
	}

	out := make([][]byte, 0, count)
	for _, name := range names[:count] {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("fixture: %w", err)
		}
		out = append(out, data)
	}
	return out, nil
}
