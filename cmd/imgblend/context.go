package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/ironsheep/imgblend/internal/codec"
	"github.com/ironsheep/imgblend/internal/config"
	"github.com/ironsheep/imgblend/internal/logging"
	"github.com/ironsheep/imgblend/internal/raster"
)

// commandContext lazily builds the pieces shared by subcommands. Everything
// hangs off the loaded config, so ensureConfig must succeed first.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	mu     sync.Mutex
	logger *slog.Logger
	pool   *codec.Pool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerValue() (*slog.Logger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

// poolValue returns the codec pool sized by workers.codec.
func (c *commandContext) poolValue() (*codec.Pool, error) {
	logger, err := c.loggerValue()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool == nil {
		c.pool = codec.NewPool(codec.Imaging{}, c.config.Workers.Codec, logger)
	}
	return c.pool, nil
}

func (c *commandContext) rasterOptions() ([]raster.Option, error) {
	logger, err := c.loggerValue()
	if err != nil {
		return nil, err
	}
	pool, err := c.poolValue()
	if err != nil {
		return nil, err
	}
	return []raster.Option{raster.WithPool(pool), raster.WithLogger(logger)}, nil
}

func (c *commandContext) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.Stop()
		c.pool = nil
	}
}
