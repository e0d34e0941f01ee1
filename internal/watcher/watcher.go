package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/alucardeht/prosaic/internal/ingest"
	"github.com/alucardeht/prosaic/internal/logger"
)

var log = logger.ForComponent("watcher")

// Enqueuer receives ingest jobs; *ingest.Worker implements it.
type Enqueuer interface {
	Enqueue(job ingest.Job) bool
}

// Watcher keeps corpora in sync with directories of text. Every watched
// root is bound to one corpus; new and changed files below it are queued
// for ingestion into that corpus.
type Watcher struct {
	config      Config
	fsWatcher   *fsnotify.Watcher
	fsWatcherMu sync.Mutex
	debouncer   *Debouncer
	queue       Enqueuer
	roots       map[string]string
	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
}

func New(config Config, queue Enqueuer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	w := &Watcher{
		config:    config,
		fsWatcher: fsWatcher,
		queue:     queue,
		roots:     make(map[string]string),
	}

	w.debouncer = NewDebouncer(config.DebounceWindow, config.MaxBatchSize, w.onFlush)

	return w, nil
}

func (w *Watcher) addToWatcher(path string) error {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Add(path)
}

func (w *Watcher) removeFromWatcher(path string) {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	_ = w.fsWatcher.Remove(path)
}

// AddRoot watches dir recursively for corpus and queues every file already
// in it.
func (w *Watcher) AddRoot(dir, corpus string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}

	log.Info("adding root to watch", "path", abs, "corpus", corpus)

	if err := w.addToWatcher(abs); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots[abs] = corpus
	w.mu.Unlock()

	queued := w.walkAndAdd(abs)
	log.Info("root added", "path", abs, "corpus", corpus, "queued", queued)
	return nil
}

func (w *Watcher) walkAndAdd(path string) int {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Debug("failed to read directory", "path", path, "error", err)
		return 0
	}

	queued := 0
	for _, entry := range entries {
		fullPath := filepath.Join(path, entry.Name())

		if w.shouldIgnore(fullPath) {
			continue
		}

		if entry.IsDir() {
			if err := w.addToWatcher(fullPath); err != nil {
				log.Debug("failed to watch directory", "path", fullPath, "error", err)
				continue
			}
			queued += w.walkAndAdd(fullPath)
			continue
		}

		if w.enqueue(fullPath, ingest.PriorityLow) {
			queued++
		}
	}

	return queued
}

func (w *Watcher) RemoveRoot(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	w.removeFromWatcher(abs)

	w.mu.Lock()
	delete(w.roots, abs)
	w.mu.Unlock()
}

// Roots maps each watched directory to its corpus.
func (w *Watcher) Roots() map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]string, len(w.roots))
	for k, v := range w.roots {
		out[k] = v
	}
	return out
}

// rootFor returns the deepest watched root containing path.
func (w *Watcher) rootFor(path string) (root, corpus string, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for r, c := range w.roots {
		if path != r && !strings.HasPrefix(path, r+string(filepath.Separator)) {
			continue
		}
		if len(r) > len(root) {
			root, corpus, ok = r, c, true
		}
	}
	return root, corpus, ok
}

func (w *Watcher) enqueue(path string, priority ingest.JobPriority) bool {
	root, corpus, ok := w.rootFor(path)
	if !ok {
		return false
	}
	return w.queue.Enqueue(ingest.Job{
		Corpus:   corpus,
		Path:     path,
		Root:     root,
		Priority: priority,
	})
}

func (w *Watcher) Start(ctx context.Context) error {
	log.Info("starting file watcher")

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	w.running = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go w.handleEvents(ctx)

	return nil
}

func (w *Watcher) handleEvents(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			log.Debug("file event", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldIgnore(event.Name) {
						if err := w.addToWatcher(event.Name); err == nil {
							w.walkAndAdd(event.Name)
						}
					}
					continue
				}
			}

			if fileEvent := w.convertEvent(event); fileEvent != nil {
				w.debouncer.Add(*fileEvent)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) convertEvent(event fsnotify.Event) *FileEvent {
	if w.shouldIgnore(event.Name) {
		return nil
	}

	var eventType EventType

	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventModify
	case event.Has(fsnotify.Remove):
		eventType = EventDelete
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return nil
	}

	return &FileEvent{
		Path:      event.Name,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// onFlush queues created and modified files. Stored phrases are immutable,
// so deletes and renames away leave the corpus as it is.
func (w *Watcher) onFlush(events []FileEvent) {
	priority := ClassifyBatch(events)
	log.Debug("flushing events", "count", len(events), "priority", priority)

	for _, event := range events {
		if event.Type == EventDelete || event.Type == EventRename {
			continue
		}
		w.enqueue(event.Path, priority)
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	basename := filepath.Base(path)

	if !w.config.WatchHidden && strings.HasPrefix(basename, ".") {
		return true
	}

	slashed := filepath.ToSlash(path)
	for _, pattern := range w.config.IgnorePatterns {
		if match, _ := doublestar.Match(pattern, strings.TrimPrefix(slashed, "/")); match {
			return true
		}
	}

	return false
}

// Stop ends event handling, flushes pending events and releases the
// underlying watcher.
func (w *Watcher) Stop() error {
	log.Info("stopping file watcher")

	w.mu.Lock()
	running := w.running
	w.running = false
	if running {
		w.cancel()
	}
	w.mu.Unlock()

	if running {
		<-w.done
	}
	w.debouncer.Stop()

	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Close()
}
