package scannermodule

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mantonx/vidvault/internal/events"
	"github.com/mantonx/vidvault/internal/logger"
	"github.com/mantonx/vidvault/internal/utils"
)

const watchDebounce = 2 * time.Second

// Watcher observes directories for filesystem changes and triggers
// re-scans. Change bursts (a file copy emits many write events) are
// debounced per directory.
type Watcher struct {
	manager  *Manager
	eventBus events.EventBus

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	pending  map[string]*time.Timer // directory -> debounce timer
	cancel   context.CancelFunc
	started  bool
	stopOnce sync.Once
}

// NewWatcher creates a directory watcher that schedules scans through
// the manager.
func NewWatcher(manager *Manager, eventBus events.EventBus) *Watcher {
	return &Watcher{
		manager:  manager,
		eventBus: eventBus,
		pending:  make(map[string]*time.Timer),
	}
}

// Start begins watching the given directories. Unwatchable directories
// are logged and skipped.
func (w *Watcher) Start(directories []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsWatcher

	watched := 0
	for _, dir := range directories {
		if !utils.IsDirectory(dir) {
			logger.Warn("Not watching %s: not a directory", dir)
			continue
		}
		if err := fsWatcher.Add(dir); err != nil {
			logger.Warn("Not watching %s: %v", dir, err)
			continue
		}
		watched++
		logger.Info("Watching directory for changes: %s", dir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.started = true

	go w.loop(ctx)

	logger.Info("Directory watcher started (%d directories)", watched)
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.started {
			return
		}
		w.cancel()
		w.watcher.Close()

		for _, timer := range w.pending {
			timer.Stop()
		}
		w.started = false
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relevant := event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0
	if !relevant || !utils.IsVideoFile(event.Name) {
		return
	}

	dir := filepath.Dir(event.Name)
	logger.Debug("Filesystem change in %s: %s %s", dir, event.Op, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[dir]; ok {
		timer.Reset(watchDebounce)
		return
	}
	w.pending[dir] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.pending, dir)
		w.mu.Unlock()
		w.rescan(dir)
	})
}

func (w *Watcher) rescan(dir string) {
	if w.eventBus != nil {
		w.eventBus.PublishAsync(events.NewSystemEvent(events.EventWatchTriggers, "Watched Directory Changed", dir))
	}

	if _, err := w.manager.StartScan(dir, false); err != nil {
		// A scan may already be running for the directory; the running
		// scan picks the change up.
		logger.Debug("Watch-triggered scan for %s not started: %v", dir, err)
	}
}
