// Package watch reports changes to a single payload file.
//
// The parent directory is watched rather than the file itself so that
// editors which save by writing a temporary file and renaming it over the
// original are still seen. Bursts of filesystem events are debounced into a
// single notification.
package watch

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a change
// is reported.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports changes to one file.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *log.Logger
	fs       *fsnotify.Watcher
	changes  chan string
}

// New starts watching path. Call [Watcher.Run] to deliver changes and
// [Watcher.Close] to release the watch.
func New(path string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, err
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		logger:   logger,
		fs:       fs,
		changes:  make(chan string, 1),
	}, nil
}

// Changes receives the watched path once per debounced burst of writes.
// A pending notification is never duplicated.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run delivers changes until ctx is cancelled or the watch fails. It closes
// the Changes channel on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.changes)

	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("payload file event", "path", ev.Name, "op", ev.Op.String())
			debounce.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "err", err)

		case <-debounce.C:
			select {
			case w.changes <- w.path:
				w.logger.Info("payload changed", "path", w.path)
			default:
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
