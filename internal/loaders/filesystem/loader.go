// Package filesystem loads plain-text documents from a directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/logger"
)

// defaultExtensions are the file types loaded when none are configured.
var defaultExtensions = []string{".txt", ".md"}

// Loader reads text documents under a root directory. Hidden files and
// directories are skipped, as are files with other extensions.
type Loader struct {
	root string
	exts map[string]bool
}

// Option configures the loader.
type Option func(*Loader)

// WithExtensions replaces the set of loaded file extensions.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		l.exts = make(map[string]bool, len(exts))
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.exts[strings.ToLower(ext)] = true
		}
	}
}

// New creates a loader rooted at the given directory.
func New(root string, opts ...Option) *Loader {
	l := &Loader{root: root}
	WithExtensions(defaultExtensions...)(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Validate checks the root path exists and is a directory.
func (l *Loader) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path does not exist: %s", l.root)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path is not a directory: %s", l.root)
	}
	return nil
}

// Load walks the tree and returns every eligible document.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	if err := l.Validate(ctx); err != nil {
		return nil, err
	}

	var docs []domain.Document
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != l.root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !l.eligible(path, d.Name()) {
			return nil
		}

		doc, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Loaded %d documents from %s", len(docs), l.root)
	return docs, nil
}

// LoadFile reads a single file into a document. The source ID is the
// normalised content hash, so identical content maps to one source
// regardless of where the file lives.
func (l *Loader) LoadFile(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	content := normalise(string(data))

	abs := path
	if a, err := filepath.Abs(path); err == nil {
		abs = a
	}

	return domain.Document{
		SourceID:  domain.ContentHash(content),
		Content:   content,
		Type:      domain.SourceTypeUpload,
		SourceURL: "file://" + abs,
		Metadata: map[string]any{
			"filename":  filepath.Base(path),
			"extension": strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		},
	}, nil
}

// eligible reports whether the file should be loaded.
func (l *Loader) eligible(path, name string) bool {
	if isHidden(name) {
		return false
	}
	return l.exts[strings.ToLower(filepath.Ext(path))]
}

// isHidden reports whether the name is a dot file. The special entries
// "." and ".." are not hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// normalise converts line endings to LF and trims trailing whitespace
// per line, so the content hash is stable across editors and platforms.
func normalise(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
