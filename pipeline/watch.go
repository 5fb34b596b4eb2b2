package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a drop directory for FIT files and runs the pipeline on
// each new or rewritten file. Events are debounced so a file still being
// copied in is processed once, after it settles.
type Watcher struct {
	watcher  *fsnotify.Watcher
	inDir    string
	outRoot  string
	opts     Options
	debounce time.Duration

	mu         sync.Mutex
	processing map[string]bool

	OnResult func(path string, res *Result)
	OnError  func(path string, err error)
}

// NewWatcher creates a watcher that writes each file's bundle to a
// subdirectory of outRoot named after the source file.
func NewWatcher(inDir, outRoot string, opts Options, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsWatcher.Add(inDir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:    fsWatcher,
		inDir:      inDir,
		outRoot:    outRoot,
		opts:       opts,
		debounce:   debounce,
		processing: make(map[string]bool),
	}, nil
}

// Run blocks until the context is cancelled, dispatching one pipeline run
// per settled FIT file.
func (w *Watcher) Run(ctx context.Context) error {
	timers := make(map[string]*time.Timer)
	var timerMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := event.Name
			if !strings.EqualFold(filepath.Ext(path), ".fit") {
				continue
			}

			timerMu.Lock()
			if timer, exists := timers[path]; exists {
				timer.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				w.handleFile(path)
			})
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError("", err)
			}
		}
	}
}

func (w *Watcher) handleFile(path string) {
	w.mu.Lock()
	if w.processing[path] {
		w.mu.Unlock()
		return
	}
	w.processing[path] = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.processing, path)
		w.mu.Unlock()
	}()

	if _, err := os.Stat(path); err != nil {
		if w.OnError != nil {
			w.OnError(path, err)
		}
		return
	}

	opts := w.opts
	opts.FitPath = path
	opts.OutDir = filepath.Join(w.outRoot, bundleName(path))
	opts.Overwrite = true

	res, err := Run(opts)
	if err != nil {
		if w.OnError != nil {
			w.OnError(path, err)
		}
		return
	}
	if w.OnResult != nil {
		w.OnResult(path, res)
	}
}

func bundleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
