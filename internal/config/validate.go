package config

import (
	"errors"
	"fmt"
	"image/png"

	"github.com/ironsheep/imgblend/internal/codec"
)

// Bench modes.
const (
	ModeChain = "chain"
	ModeBlend = "blend"
)

var pngCompression = map[string]png.CompressionLevel{
	"default": png.DefaultCompression,
	"none":    png.NoCompression,
	"speed":   png.BestSpeed,
	"best":    png.BestCompression,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBench(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if c.Workers.Codec < 0 {
		return errors.New("workers.codec must be zero or positive")
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateBench() error {
	if c.Bench.Iterations < 1 {
		return errors.New("bench.iterations must be positive")
	}
	if c.Bench.Concurrency < 1 {
		return errors.New("bench.concurrency must be positive")
	}
	if c.Bench.Layers < 1 {
		return errors.New("bench.layers must be positive")
	}
	if c.Bench.FixtureSize < 1 {
		return errors.New("bench.fixture_size must be positive")
	}
	switch c.Bench.Mode {
	case ModeChain, ModeBlend:
	default:
		return fmt.Errorf("bench.mode must be %q or %q, got %q", ModeChain, ModeBlend, c.Bench.Mode)
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if _, err := codec.ParseFormat(c.Encoding.Format); err != nil {
		return fmt.Errorf("encoding.format: %w", err)
	}
	if c.Encoding.JPEGQuality < 1 || c.Encoding.JPEGQuality > 100 {
		return errors.New("encoding.jpeg_quality must be between 1 and 100")
	}
	if _, ok := pngCompression[c.Encoding.PNGCompression]; !ok {
		return fmt.Errorf("encoding.png_compression must be default, none, speed or best, got %q", c.Encoding.PNGCompression)
	}
	return nil
}

// CodecOptions converts the encoding section into encoder options. It
// assumes a validated config.
func (e Encoding) CodecOptions() codec.Options {
	format, _ := codec.ParseFormat(e.Format)
	return codec.Options{
		Format: format,
		PNG:    codec.PNGOptions{Compression: pngCompression[e.PNGCompression]},
		JPEG:   codec.JPEGOptions{Quality: e.JPEGQuality},
	}
}
