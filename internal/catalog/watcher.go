package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const pollInterval = 30 * time.Second

// Watcher monitors the product identifier file and invokes a callback
// when it changes, so the store can refresh its catalog without a
// restart. Falls back to polling when fsnotify cannot watch the
// directory.
type Watcher struct {
	path     string
	onChange func()

	watcher     *fsnotify.Watcher
	stopChan    chan struct{}
	stopOnce    sync.Once
	lastModTime time.Time
}

// NewWatcher creates a watcher for the identifier file at path.
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fsw,
		stopChan: make(chan struct{}),
	}

	if stat, err := os.Stat(path); err == nil {
		w.lastModTime = stat.ModTime()
	}

	return w, nil
}

// Start begins watching. Watching the directory, not the file, survives
// editors that replace the file on save.
func (w *Watcher) Start() {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		log.Warn().Err(err).Str("path", dir).Msg("Failed to watch product file, falling back to polling")
		go w.poll()
		return
	}

	go w.watch()
	log.Info().Str("path", w.path).Msg("Watching product identifier file")
}

// Stop ends watching.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.watcher.Close()
	})
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.handleChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Product file watcher error")
		}
	}
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			stat, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if stat.ModTime().After(w.lastModTime) {
				w.lastModTime = stat.ModTime()
				w.handleChange()
			}
		}
	}
}

func (w *Watcher) handleChange() {
	log.Info().Str("path", w.path).Msg("Product identifier file changed")
	w.onChange()
}
