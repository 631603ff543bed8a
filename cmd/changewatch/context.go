package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"changewatch/internal/config"
)

// overrides holds the persistent flags that take precedence over file and environment.
type overrides struct {
	configPath string
	strategy   string
	threshold  float64
	serialPort string
}

type commandContext struct {
	flags *overrides

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *overrides) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig layers environment (.env), the optional TOML file and changed flags.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg := config.Load()

		if path := strings.TrimSpace(c.flags.configPath); path != "" {
			if err := config.LoadFile(cfg, path); err != nil {
				c.configErr = err
				return
			}
		}

		flags := cmd.Flags()
		if flags.Changed("strategy") {
			cfg.Strategy = c.flags.strategy
		}
		if flags.Changed("threshold") {
			threshold := c.flags.threshold
			cfg.Threshold = &threshold
		}
		if flags.Changed("serial-port") {
			cfg.SerialPort = c.flags.serialPort
		}

		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}
