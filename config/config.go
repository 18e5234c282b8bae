// Package config loads config.yaml and hot-reloads it on change.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"
)

// WatchEntry is a symbol the host pre-fetches and persists at startup.
type WatchEntry struct {
	Symbol string `yaml:"symbol"`
	Market string `yaml:"market"`
}

type Config struct {
	Watch    []WatchEntry `yaml:"watch"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Cache struct {
		Size int    `yaml:"size"`
		TTL  string `yaml:"ttl"`
	} `yaml:"cache"`
}

// CacheTTL parses the configured cache TTL, defaulting to 5 minutes.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Load reads and validates a config file, applying defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Http.Port == 0 {
		cfg.Http.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "stockdata.db"
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 256
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "5m"
	}
	return &cfg, nil
}

// Watch reloads the file whenever it changes and hands the new config
// to onChange. Editors often replace the file instead of writing in
// place, so the path is re-added after rename/remove events. The
// returned stop function ends the watch.
func Watch(path string, onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
					// Give the editor a moment to drop the new file in.
					time.Sleep(100 * time.Millisecond)
					_ = watcher.Add(path)
				}
				if cfg, err := Load(path); err == nil {
					onChange(cfg)
				}
			case <-watcher.Errors:
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
