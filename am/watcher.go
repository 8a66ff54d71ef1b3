package am

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/logger"
)

// Watcher watches files for changes and triggers debounced callbacks.
//
// The directories of the files are watched rather than the files
// themselves, so that files replaced by editors keep being watched.
type Watcher struct {
	files          map[string]bool
	watcher        *fsnotify.Watcher
	callbacks      []ChangeCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	changed        map[string]bool
	ownWrites      map[string]bool // Paths written by us, to prevent reload loops
	ownWritesMu    sync.Mutex
}

// ChangeCallback is called with the changed files, sorted
type ChangeCallback func(changed []string) error

// globalWatcher holds the watcher SetValue marks own writes in
var (
	globalWatcher   *Watcher
	globalWatcherMu sync.Mutex
)

// NewWatcher creates a watcher of the given files
func NewWatcher(debounce time.Duration, paths ...string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		files:          make(map[string]bool),
		watcher:        watcher,
		debouncePeriod: debounce,
		changed:        make(map[string]bool),
		ownWrites:      make(map[string]bool),
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", path)
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "failed to watch directory %s", dir)
		}
	}

	return w, nil
}

// OnChange registers a callback to be called when watched files change
func (w *Watcher) OnChange(callback ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// OnConfigReload registers a callback receiving the reloaded configuration
// whenever a watched esgen.toml changes
func (w *Watcher) OnConfigReload(callback func(*Config) error) {
	w.OnChange(func(changed []string) error {
		for _, path := range changed {
			if filepath.Base(path) != ConfigFileName {
				continue
			}
			Reset()
			config, err := Load()
			if err != nil {
				return errors.Wrap(err, "failed to reload config")
			}
			logger.Infow("Config reloaded successfully", logger.FieldPath, path)
			return callback(config)
		}
		return nil
	})
}

// MarkOwnWrite marks the next write of path as coming from us
func (w *Watcher) MarkOwnWrite(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	w.ownWritesMu.Lock()
	defer w.ownWritesMu.Unlock()
	w.ownWrites[abs] = true
}

// checkOwnWrite checks and clears the own-write flag of path
func (w *Watcher) checkOwnWrite(path string) bool {
	w.ownWritesMu.Lock()
	defer w.ownWritesMu.Unlock()

	if w.ownWrites[path] {
		delete(w.ownWrites, path)
		return true
	}
	return false
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// watchLoop monitors file system events
func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only react to Write or Create events of watched files
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] || isBackupFile(path) {
				continue
			}

			if w.checkOwnWrite(path) {
				logger.Debugw("Watcher ignoring own write", logger.FieldFile, path)
				continue
			}

			logger.Debugw("Watcher detected change",
				logger.FieldFile, path,
				logger.FieldOperation, event.Op.String())
			w.scheduleChange(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

// scheduleChange debounces rapid file changes and triggers callbacks
func (w *Watcher) scheduleChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.changed[path] = true

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.notify)
}

// notify calls all callbacks with the files changed since the last call
func (w *Watcher) notify() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.changed))
	for path := range w.changed {
		changed = append(changed, path)
	}
	w.changed = make(map[string]bool)
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	sort.Strings(changed)

	for _, callback := range callbacks {
		if err := callback(changed); err != nil {
			logger.Warnw("Watcher callback error", logger.FieldError, err)
			// Continue calling other callbacks even if one fails
		}
	}
}

// Stop stops watching for changes
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

// isBackupFile checks if the file is a config backup (.back1, .back2, .back3)
func isBackupFile(path string) bool {
	ext := filepath.Ext(path)
	return strings.HasPrefix(ext, ".back")
}

// SetGlobalWatcher sets the global watcher instance (used to prevent reload loops)
func SetGlobalWatcher(watcher *Watcher) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	globalWatcher = watcher
}

// GetGlobalWatcher returns the global watcher instance
func GetGlobalWatcher() *Watcher {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	return globalWatcher
}
