package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"nightwatch/internal/config"
	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withService opens the store, runs the daily backup check, and hands a
// lifecycle service to fn. Every non-serve command funnels through here so
// backups happen even when the daemon never runs.
func (c *commandContext) withService(cmdCtx context.Context, fn func(context.Context, *shifts.Service, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	backupCtx, cancel := context.WithTimeout(cmdCtx, 10*time.Second)
	_, _, _ = st.EnsureDailyBackup(backupCtx, cfg.Paths.BackupsDir)
	cancel()

	return fn(cmdCtx, shifts.NewService(st, nil), st)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
