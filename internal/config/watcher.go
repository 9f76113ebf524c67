package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow coalesces the write bursts editors and config mounts
// produce into a single reload.
const debounceWindow = 250 * time.Millisecond

// Watcher hot-reloads the graph and scheduler tunables when the config
// file changes. Invalid files are logged and skipped; the last good
// snapshot stays active.
type Watcher struct {
	path     string
	provider *Provider
	logger   *zap.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher creates a watcher for the config file at path
func NewWatcher(path string, provider *Provider, logger *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(path); err != nil {
		fs.Close()
		return nil, err
	}
	return &Watcher{path: path, provider: provider, logger: logger, fs: fs}, nil
}

// Run watches until the context is cancelled
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected, keeping previous snapshot",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}
	w.provider.Swap(cfg)
	w.logger.Info("config reloaded",
		zap.Float64("similarity_threshold", cfg.Graph.SimilarityThreshold),
		zap.Int("pass_cutoff", cfg.Scheduler.PassCutoff))
}
