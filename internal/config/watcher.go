package config

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultReloadDelay coalesces bursts of file events into one reload.
const DefaultReloadDelay = 500 * time.Millisecond

// Watcher reloads the configuration when a file under the loader's base path
// changes and hands the new value to registered callbacks.
type Watcher struct {
	loader    *Loader
	logger    *zap.Logger
	delay     time.Duration
	watcher   *fsnotify.Watcher
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewWatcher starts watching loader's base path. Call Run to process events.
func NewWatcher(loader *Loader, initial *Config, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(loader.BasePath()); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", loader.BasePath(), err)
	}

	logger.Info("Configuration hot reloading enabled", zap.String("path", loader.BasePath()))
	return &Watcher{
		loader:  loader,
		logger:  logger,
		delay:   DefaultReloadDelay,
		watcher: fsWatcher,
		config:  initial,
	}, nil
}

// SetDelay changes the debounce delay.
func (w *Watcher) SetDelay(d time.Duration) {
	if d > 0 {
		w.delay = d
	}
}

// OnChange registers a callback for reloaded configurations.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Run processes file events until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}
			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.delay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-ctx.Done():
			w.logger.Info("Stopping configuration watcher")
			return nil
		}
	}
}

func (w *Watcher) reload() {
	next, err := w.loader.Load()
	if err != nil {
		w.logger.Error("Invalid configuration after reload, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	if configsEqual(w.config, next) {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.config = next
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	for i, cb := range callbacks {
		w.notify(i, cb, next)
	}
	w.logger.Info("Configuration reloaded", zap.Int("callbacks_notified", len(callbacks)))
}

func (w *Watcher) notify(idx int, cb func(*Config), cfg *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Configuration callback panicked",
				zap.Int("callback_index", idx),
				zap.Any("panic", r),
			)
		}
	}()
	cb(cfg)
}

func configsEqual(a, b *Config) bool {
	if a == nil || b == nil {
		return a == b
	}
	x, y := *a, *b
	x.LoadedFrom, y.LoadedFrom = nil, nil
	return reflect.DeepEqual(x, y)
}

func isConfigFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}
