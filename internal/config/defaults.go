package config

import (
	"github.com/ironsheep/imgblend/internal/codec"
	"github.com/ironsheep/imgblend/internal/queue"
)

const (
	defaultIterations     = 200
	defaultMode           = "chain"
	defaultLayers         = 5
	defaultFixtureSize    = 256
	defaultSeed           = 1
	defaultFormat         = "png"
	defaultPNGCompression = "default"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Bench: Bench{
			Iterations:  defaultIterations,
			Concurrency: queue.DefaultConcurrency,
			Mode:        defaultMode,
			Layers:      defaultLayers,
			FixtureSize: defaultFixtureSize,
			Seed:        defaultSeed,
		},
		Encoding: Encoding{
			Format:         defaultFormat,
			JPEGQuality:    codec.DefaultJPEGQuality,
			PNGCompression: defaultPNGCompression,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
