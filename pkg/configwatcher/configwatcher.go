package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"wellbeing_dashboard/internal/config"
	"wellbeing_dashboard/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg *config.Config)

const debounce = time.Second

var (
	mu        sync.RWMutex
	reloaders []ConfigReloader
)

// Register adds a callback invoked with the freshly loaded config after each
// change to the watched file.
func Register(r ConfigReloader) {
	mu.Lock()
	defer mu.Unlock()
	reloaders = append(reloaders, r)
}

func notify(cfg *config.Config) {
	mu.RLock()
	defer mu.RUnlock()
	for _, r := range reloaders {
		r(cfg)
	}
}

// WatchConfig blocks until ctx is done. Editors that replace the file emit
// Create/Rename instead of Write, so the parent directory is watched.
func WatchConfig(ctx context.Context, configPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(debounce)
			}
		case <-pending:
			pending = nil
			newCfg, err := config.Reload()
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			logger.Log.Info("Config reloaded", zap.String("file", absPath))
			notify(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
