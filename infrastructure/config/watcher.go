package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ThresholdWatcher watches a YAML file holding the suggestion thresholds and
// hot-reloads them without a restart
type ThresholdWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	stopCh   chan struct{}
	onChange []func(SuggestionConfig)

	mu      sync.RWMutex
	current SuggestionConfig
}

// NewThresholdWatcher loads the initial thresholds and sets up the file watch
func NewThresholdWatcher(path string, initial SuggestionConfig, logger *zap.Logger) (*ThresholdWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch threshold file: %w", err)
	}

	// watch the directory too so atomic saves (rename) are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Failed to watch threshold directory", zap.Error(err))
	}

	w := &ThresholdWatcher{
		path:    path,
		watcher: watcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
		current: initial,
	}

	if loaded, err := loadThresholds(path); err == nil {
		w.current = loaded
	} else {
		logger.Warn("Threshold file unreadable, using initial values", zap.Error(err))
	}

	return w, nil
}

// Current returns the latest thresholds
func (w *ThresholdWatcher) Current() SuggestionConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload
func (w *ThresholdWatcher) OnChange(fn func(SuggestionConfig)) {
	w.onChange = append(w.onChange, fn)
}

// Start begins watching for file changes
func (w *ThresholdWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Threshold watcher started", zap.String("path", w.path))
}

// Stop ends the watch loop and releases the watcher
func (w *ThresholdWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Threshold watcher stopped")
}

func (w *ThresholdWatcher) watchLoop() {
	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Threshold watcher error", zap.Error(err))
		}
	}
}

func (w *ThresholdWatcher) reload() {
	loaded, err := loadThresholds(w.path)
	if err != nil {
		w.logger.Error("Failed to reload thresholds, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = loaded
	w.mu.Unlock()

	w.logger.Info("Suggestion thresholds reloaded",
		zap.Float64("min_confidence", loaded.MinConfidence),
		zap.Float64("high_confidence", loaded.HighConfidence),
	)

	for _, fn := range w.onChange {
		fn(loaded)
	}
}

func loadThresholds(path string) (SuggestionConfig, error) {
	var cfg SuggestionConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read threshold file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse threshold file: %w", err)
	}

	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return cfg, fmt.Errorf("min confidence out of range: %f", cfg.MinConfidence)
	}
	if cfg.HighConfidence < cfg.MinConfidence || cfg.HighConfidence > 1 {
		return cfg, fmt.Errorf("high confidence out of range: %f", cfg.HighConfidence)
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 50
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	return cfg, nil
}
