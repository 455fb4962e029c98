package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/logger"
)

// Watcher streams documents as files appear or change under the root.
// Deletions are not reported: sources are content-addressed, so a
// removed file has no stable identity to revoke.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
}

// Watch starts watching the loader's tree. The returned channel closes
// when ctx is cancelled. Each eligible create or write delivers the
// freshly loaded document.
func (l *Loader) Watch(ctx context.Context) (<-chan domain.Document, error) {
	if err := l.Validate(ctx); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{loader: l, watcher: fsw}
	if err := w.addTree(l.root); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan domain.Document)
	go w.run(ctx, out)
	return out, nil
}

// addTree registers the root and every non-hidden subdirectory.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// run pumps fsnotify events until the context ends.
func (w *Watcher) run(ctx context.Context, out chan<- domain.Document) {
	defer close(out)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			doc, ok := w.handleEvent(event)
			if !ok {
				continue
			}
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleEvent turns a create or write on an eligible file into a
// loaded document. New directories are added to the watch; everything
// else is ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) (domain.Document, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return domain.Document{}, false
	}

	name := filepath.Base(event.Name)
	if isHidden(name) {
		return domain.Document{}, false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return domain.Document{}, false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("watching new directory %s: %v", event.Name, err)
			}
		}
		return domain.Document{}, false
	}

	if !w.loader.eligible(event.Name, name) {
		return domain.Document{}, false
	}

	doc, err := w.loader.LoadFile(event.Name)
	if err != nil {
		logger.Warn("loading changed file %s: %v", event.Name, err)
		return domain.Document{}, false
	}
	return doc, true
}
