package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeThresholds(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newWatcher(t *testing.T, path string) *ThresholdWatcher {
	t.Helper()
	watcher, err := NewThresholdWatcher(path, SuggestionConfig{
		MinConfidence:  0.5,
		HighConfidence: 0.75,
		CandidateLimit: 50,
		DefaultLimit:   5,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(watcher.Stop)
	return watcher
}

func TestThresholdWatcherLoadsInitialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	writeThresholds(t, path, "min_confidence: 0.6\nhigh_confidence: 0.9\n")

	watcher := newWatcher(t, path)

	current := watcher.Current()
	assert.Equal(t, 0.6, current.MinConfidence)
	assert.Equal(t, 0.9, current.HighConfidence)
	// absent limits fall back to defaults
	assert.Equal(t, 50, current.CandidateLimit)
	assert.Equal(t, 5, current.DefaultLimit)
}

func TestThresholdWatcherMissingFile(t *testing.T) {
	_, err := NewThresholdWatcher(filepath.Join(t.TempDir(), "absent.yaml"), SuggestionConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestThresholdWatcherHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	writeThresholds(t, path, "min_confidence: 0.5\nhigh_confidence: 0.75\n")

	watcher := newWatcher(t, path)

	reloaded := make(chan SuggestionConfig, 1)
	watcher.OnChange(func(cfg SuggestionConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	watcher.Start()

	writeThresholds(t, path, "min_confidence: 0.65\nhigh_confidence: 0.95\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 0.65, cfg.MinConfidence)
		assert.Equal(t, 0.95, cfg.HighConfidence)
	case <-time.After(3 * time.Second):
		t.Fatal("threshold reload was not observed")
	}

	assert.Equal(t, 0.65, watcher.Current().MinConfidence)
}

func TestThresholdWatcherKeepsCurrentOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	writeThresholds(t, path, "min_confidence: 0.5\nhigh_confidence: 0.75\n")

	watcher := newWatcher(t, path)
	watcher.Start()

	// out-of-range values are rejected and the previous config stays active
	writeThresholds(t, path, "min_confidence: 3.0\nhigh_confidence: 0.1\n")

	assert.Never(t, func() bool {
		return watcher.Current().MinConfidence != 0.5
	}, 500*time.Millisecond, 50*time.Millisecond)
}

func TestLoadThresholdsValidation(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	writeThresholds(t, bad, "min_confidence: -1\n")
	_, err := loadThresholds(bad)
	assert.Error(t, err)

	unparseable := filepath.Join(dir, "broken.yaml")
	writeThresholds(t, unparseable, "{{not yaml")
	_, err = loadThresholds(unparseable)
	assert.Error(t, err)

	_, err = loadThresholds(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
