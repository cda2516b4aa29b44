package ingest

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher follows the drop directory and consumes session files after
// they settle. Writes are debounced because hooks may write a file in
// several chunks.
type Watcher struct {
	runner   *Runner
	debounce time.Duration

	fsw      *fsnotify.Watcher
	stopChan chan struct{}
	wg       sync.WaitGroup

	pending    map[string]time.Time
	pendingMux sync.Mutex
}

// Watch starts following the runner's drop directory. Stop must be
// called to release the underlying watcher.
func (r *Runner) Watch(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(r.dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		runner:   r,
		debounce: debounce,
		fsw:      fsw,
		stopChan: make(chan struct{}),
		pending:  make(map[string]time.Time),
	}
	w.wg.Add(2)
	go w.watch()
	go w.debounceLoop()

	// Files dropped before the watch started are consumed immediately.
	if _, err := r.RunAll(); err != nil {
		slog.Warn("initial ingest sweep failed", "error", err)
	}
	return w, nil
}

// Stop shuts the watcher down and waits for in-flight work.
func (w *Watcher) Stop() {
	close(w.stopChan)
	w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.isInteresting(event) {
				continue
			}
			w.pendingMux.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMux.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) isInteresting(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	return strings.HasSuffix(event.Name, ".json") &&
		filepath.Dir(event.Name) == filepath.Clean(w.runner.dir)
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.flushSettled()
		}
	}
}

// flushSettled consumes every pending file whose last event is older
// than the debounce window.
func (w *Watcher) flushSettled() {
	now := time.Now()

	w.pendingMux.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMux.Unlock()

	for _, path := range ready {
		res, err := w.runner.RunFile(path)
		if err != nil {
			slog.Warn("ingest failed", "file", path, "error", err)
			continue
		}
		slog.Info("ingested session file",
			"file", path, "session", res.Session,
			"remembered", res.Remembered, "replaced", res.Replaced,
			"skipped", res.Skipped, "failed", res.Failed)
	}
}
