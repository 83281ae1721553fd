package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Bench.FixturesDir, err = ExpandPath(strings.TrimSpace(c.Bench.FixturesDir)); err != nil {
		return fmt.Errorf("bench.fixtures_dir: %w", err)
	}
	if c.Bench.Output, err = ExpandPath(strings.TrimSpace(c.Bench.Output)); err != nil {
		return fmt.Errorf("bench.output: %w", err)
	}
	c.Bench.Mode = strings.ToLower(strings.TrimSpace(c.Bench.Mode))
	if c.Bench.Mode == "" {
		c.Bench.Mode = defaultMode
	}

	c.Encoding.Format = strings.ToLower(strings.TrimSpace(c.Encoding.Format))
	if c.Encoding.Format == "" {
		c.Encoding.Format = defaultFormat
	}
	c.Encoding.PNGCompression = strings.ToLower(strings.TrimSpace(c.Encoding.PNGCompression))
	if c.Encoding.PNGCompression == "" {
		c.Encoding.PNGCompression = defaultPNGCompression
	}

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
