package edit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"codenote/internal/annotation"
	"codenote/internal/document"
	"codenote/util"
)

// Surface applies a batch of edits to a document, all or nothing.
type Surface interface {
	Apply(ctx context.Context, documentID string, edits []annotation.PendingEdit) error
}

// FileSurface edits files on disk. A document must be tracked before edits
// computed against it can be applied; Apply refuses when the file no longer
// matches the tracked snapshot.
type FileSurface struct {
	mu      sync.Mutex
	tracked map[string]*document.Document
}

func NewFileSurface() *FileSurface {
	return &FileSurface{tracked: make(map[string]*document.Document)}
}

// Track records doc as the snapshot edits are computed against and returns
// its document ID.
func (s *FileSurface) Track(doc *document.Document) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[doc.Path] = doc
	return doc.Path
}

// Document returns the current snapshot for id.
func (s *FileSurface) Document(id string) (*document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.tracked[id]
	return doc, ok
}

func (s *FileSurface) Apply(ctx context.Context, documentID string, edits []annotation.PendingEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.tracked[documentID]
	if !ok {
		return fmt.Errorf("document %s is not tracked", documentID)
	}
	if len(edits) == 0 {
		return nil
	}

	info, err := os.Stat(doc.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", doc.Path, err)
	}
	current, err := os.ReadFile(doc.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", doc.Path, err)
	}
	if util.ContentHash(string(current)) != doc.Hash() {
		return fmt.Errorf("%w: %s changed since it was read", ErrApplyConflict, doc.Path)
	}

	out, err := Render(doc, edits)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeAtomic(doc.Path, []byte(out), info.Mode().Perm()); err != nil {
		return err
	}

	next := document.New(doc.Path, doc.LanguageID, out)
	next.Version = doc.Version + 1
	s.tracked[documentID] = next
	slog.Info("edit: applied", "path", doc.Path, "edits", len(edits), "version", next.Version)
	return nil
}

// writeAtomic replaces path through a temporary file in the same directory.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".codenote-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(name, perm); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
