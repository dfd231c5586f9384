package bench

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sunlight2728/pulsar/internal/cliconfig"
	"github.com/sunlight2728/pulsar/pkg/log"
)

// defaultDebounce coalesces the burst of events most editors emit per save.
const defaultDebounce = 100 * time.Millisecond

// ConfigWatcher reloads the bench config file when it changes on disk and
// hands the parsed result to an apply callback. It watches the file's
// directory rather than the file itself, so editors that replace the file
// keep the watch alive.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	apply    func(cliconfig.FileConfig)
	logger   log.Logger

	mu    sync.Mutex
	timer *time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConfigWatcher prepares a watcher for the config file at path. apply is
// called with each successfully reloaded config; a debounce of zero or below
// selects the default.
func NewConfigWatcher(path string, debounce time.Duration, apply func(cliconfig.FileConfig), lg log.Logger) *ConfigWatcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &ConfigWatcher{
		path:     path,
		debounce: debounce,
		apply:    apply,
		logger:   lg,
	}
}

// Start begins watching. It fails if the file's directory cannot be watched.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.logger.Info("watching config file", log.String("path", w.path))

	w.wg.Add(1)
	go w.watchLoop(watchCtx, watcher)
	return nil
}

// Stop halts the watcher and waits for its goroutine to exit. Safe to call
// when Start was never called or failed.
func (w *ConfigWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *ConfigWatcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (w *ConfigWatcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	fc, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", log.String("path", w.path), log.Err(err))
		return
	}
	w.logger.Info("config reloaded", log.String("path", w.path))
	w.apply(fc)
}
