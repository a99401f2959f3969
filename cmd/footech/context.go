package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"footech/internal/app"
	"footech/internal/config"
	"footech/internal/logger"
)

type commandContext struct {
	configFlag *string
	debugFlag  *bool

	configOnce sync.Once
	config     *config.Configuration
	configErr  error

	log *zap.Logger
}

func newCommandContext(configFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		debugFlag:  debugFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Configuration, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := app.LoadConfiguration(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.debugFlag != nil && *c.debugFlag {
			cfg.Set("log.debug", true)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger is built lazily so commands that never log stay quiet
func (c *commandContext) logger() *zap.Logger {
	if c.log != nil {
		return c.log
	}
	debug := c.debugFlag != nil && *c.debugFlag
	if c.config != nil {
		debug = c.config.GetDebugMode()
	}
	log, err := logger.NewLoggerForConfig(debug)
	if err != nil {
		log = zap.NewNop()
	}
	c.log = log
	return c.log
}

func (c *commandContext) close() {
	if c.log != nil {
		_ = c.log.Sync()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
