package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
)

// DefaultDebounce is how long the watcher waits after the last change before
// re-reading the file.
const DefaultDebounce = 50 * time.Millisecond

// ReloadFunc receives the freshly loaded configuration.
type ReloadFunc func(cfg *Config)

// Watcher re-reads a config file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself, since most
// editors save by writing a temporary file and renaming it into place.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload ReloadFunc
	logger   *logging.Logger
	debounce time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher starts watching path. onReload is called from the watcher's
// goroutine with each valid configuration; invalid files are logged and
// skipped.
func NewWatcher(path string, onReload ReloadFunc, logger *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		watcher:  fw,
		onReload: onReload,
		logger:   logger.WithComponent("config"),
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Stop stops the watcher and waits for its goroutine to exit. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
	<-w.done
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	// Editors often emit several events for a single save
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	for {
		select {
		case <-w.stopCh:
			debounceTimer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", "path", w.path, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// LoadFile reads path into a fresh viper instance seeded with defaults and
// environment overrides, then validates it.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaultsOn(v)
	BindEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return LoadFrom(v)
}
