package prompt

import (
	"context"
	"path/filepath"

	"company_research/pkg/core/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a catalog whenever its source file changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	catalog *Catalog
	path    string
	logger  *zap.Logger

	// reloaded receives the outcome of each reload; nil unless set by tests.
	reloaded chan error
}

// NewWatcher watches the directory of path; editors often replace files by rename,
// which a watch on the file itself would lose.
func NewWatcher(catalog *Catalog, path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{
		watcher: w,
		catalog: catalog,
		path:    filepath.Clean(path),
		logger:  logging.New("prompt.watcher"),
	}, nil
}

// Run processes events until ctx is done. A file that fails to parse leaves the
// previous questions in place.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	questions, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("reload failed, keeping previous questions", zap.String("path", w.path), zap.Error(err))
	} else {
		w.catalog.Replace(questions, w.path)
		w.logger.Info("questions reloaded", zap.String("path", w.path), zap.Int("count", w.catalog.Count()))
	}
	if w.reloaded != nil {
		select {
		case w.reloaded <- err:
		default:
		}
	}
}
