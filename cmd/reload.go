package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/malikkrehic/action/internal/config"
	"github.com/malikkrehic/action/internal/log"
	"github.com/malikkrehic/action/internal/watcher"
)

// watchConfig reloads the config file at path whenever it changes until ctx
// ends. Only the log level is applied live; other settings need a restart.
func watchConfig(ctx context.Context, path string) error {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	onChange, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}

	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-onChange:
				c, err := reloadConfig(path)
				if err != nil {
					log.ErrorErr(log.CatConfig, "Ignoring config change", err, "path", path)
					continue
				}
				log.SetMinLevel(log.ParseLevel(c.Log.Level))
				log.Info(log.CatConfig, "config reloaded", "path", path, "log_level", c.Log.Level)
			}
		}
	}()
	return nil
}

// reloadConfig reads and validates the config file at path.
func reloadConfig(path string) (config.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("reading config: %w", err)
	}
	c, err := decodeConfig(v)
	if err != nil {
		return config.Config{}, err
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}
