// Package watcher re-runs work when files below a set of roots change.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/dshills/docsync/internal/logger"
	"github.com/dshills/docsync/internal/walker"
)

// Config tunes the watcher
type Config struct {
	Debounce       time.Duration
	MaxBatchSize   int
	IgnorePatterns []string
	WatchHidden    bool
}

// DefaultConfig debounces for 300ms and ignores the walker's default excludes
func DefaultConfig() Config {
	return Config{
		Debounce:       300 * time.Millisecond,
		MaxBatchSize:   100,
		IgnorePatterns: append([]string{}, walker.DefaultExcludes...),
	}
}

// Watcher watches directory trees and reports debounced batches of changed paths
type Watcher struct {
	config      Config
	fsWatcher   *fsnotify.Watcher
	fsWatcherMu sync.Mutex
	debouncer   *Debouncer

	// Directory roots; IgnorePatterns also match paths relative to them
	roots []string
	log   *slog.Logger
}

// New creates a Watcher that calls onChange with each batch of changed paths
func New(config Config, onChange func(paths []string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:    config,
		fsWatcher: fsWatcher,
		log:       logger.ForComponent("watcher"),
	}
	w.debouncer = NewDebouncer(config.Debounce, config.MaxBatchSize, onChange)

	return w, nil
}

func (w *Watcher) addToWatcher(path string) error {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Add(path)
}

// AddRoot watches path and, for a directory, every directory below it
func (w *Watcher) AddRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.addToWatcher(path)
	}

	w.log.Debug("adding root to watch", "path", path)
	w.roots = append(w.roots, filepath.Clean(path))
	if err := w.addToWatcher(path); err != nil {
		return err
	}
	return w.walkAndAdd(path)
}

func (w *Watcher) walkAndAdd(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		w.log.Debug("failed to read directory", "path", path, "error", err)
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		fullPath := filepath.Join(path, entry.Name())
		if w.shouldIgnore(fullPath) {
			continue
		}
		if err := w.addToWatcher(fullPath); err != nil {
			w.log.Debug("failed to watch directory", "path", fullPath, "error", err)
			continue
		}
		_ = w.walkAndAdd(fullPath)
	}

	return nil
}

// Run handles events until ctx is cancelled, then flushes pending changes
// and closes the underlying watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.close() }()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.log.Debug("file event", "path", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addToWatcher(event.Name); err == nil {
				_ = w.walkAndAdd(event.Name)
			}
		}
	}

	w.debouncer.Add(event.Name)
}

func (w *Watcher) shouldIgnore(path string) bool {
	basename := filepath.Base(path)

	if !w.config.WatchHidden && strings.HasPrefix(basename, ".") {
		return true
	}

	candidates := []string{filepath.ToSlash(path)}
	if rel, ok := w.relToRoot(path); ok {
		candidates = append(candidates, rel, rel+"/")
	}
	for _, pattern := range w.config.IgnorePatterns {
		for _, c := range candidates {
			if match, _ := doublestar.Match(pattern, c); match {
				return true
			}
		}
	}

	return false
}

// relToRoot returns path relative to the root containing it, slash separated
func (w *Watcher) relToRoot(path string) (string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

func (w *Watcher) close() error {
	w.debouncer.Stop()

	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Close()
}
