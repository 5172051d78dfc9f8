// Package watch reloads the loaded model file when it changes on disk.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/viewer"
)

// Reloader receives the reload requests. *viewer.Pipeline implements it.
type Reloader interface {
	Reload(src viewer.Source) *viewer.Task
}

// Watcher follows one file at a time. The parent directory is watched so
// editors that replace the file through a rename are still seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	reloader Reloader
	logger   *slog.Logger

	mu   sync.Mutex
	path string
	dir  string
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func New(reloader Reloader, opts ...Option) (*Watcher, error) {
	if reloader == nil {
		return nil, errors.New("reloader must be set")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create watcher")
	}

	w := &Watcher{
		fs:       fsw,
		reloader: reloader,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch switches the watched file to path.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "unable to resolve %s", path)
	}

	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir != w.dir {
		err = w.fs.Add(dir)
		if err != nil {
			return errors.Wrapf(err, "unable to watch %s", dir)
		}

		if w.dir != "" {
			// the old directory may be gone already
			_ = w.fs.Remove(w.dir)
		}

		w.dir = dir
	}

	w.path = abs

	return nil
}

// Path returns the watched file, empty before the first Watch.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.path
}

// Run forwards changes of the watched file until ctx is done or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			path := w.Path()
			if path == "" || filepath.Clean(event.Name) != path {
				continue
			}

			w.logger.Debug("model file changed", slog.String("path", path), slog.String("op", event.Op.String()))
			w.reloader.Reload(viewer.FileSource(path))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("file watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) Close() error {
	return errors.Wrap(w.fs.Close(), "unable to close watcher")
}
