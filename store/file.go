package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/tbxark/formbuilder/types"
)

const (
	DefaultDirPermissions  = 0o755
	DefaultFilePermissions = 0o644
)

// FileStore keeps one pretty printed JSON file per form under dir. Encoding
// follows struct field order, so equal documents produce equal bytes.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create form directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file that holds formID.
func (s *FileStore) Path(formID string) string {
	return filepath.Join(s.dir, formID+".json")
}

func (s *FileStore) Read(ctx context.Context, formID string) (*types.FormDocument, error) {
	if err := checkID(formID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.Path(formID))
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, formID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read form %s: %w", formID, err)
	}
	var doc types.FormDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode form %s: %w", formID, err)
	}
	return &doc, nil
}

func (s *FileStore) Write(ctx context.Context, doc *types.FormDocument) error {
	if doc == nil {
		return errors.New("nil form document")
	}
	if err := checkID(doc.FormID); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, "."+doc.FormID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write form %s: %w", doc.FormID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(doc.FormID)); err != nil {
		return fmt.Errorf("failed to replace form %s: %w", doc.FormID, err)
	}
	slog.Debug("Form written", "form_id", doc.FormID, "bytes", len(data))
	return nil
}

// List reads every form file in the directory. Files that cannot be decoded
// are logged and skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	items := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		formID := strings.TrimSuffix(name, ".json")
		doc, err := s.Read(ctx, formID)
		if err != nil {
			slog.Error("Skipping unreadable form", "file", name, "error", err)
			continue
		}
		items = append(items, summarize(doc))
	}
	sortNewestFirst(items)
	return items, nil
}

// Encode is the canonical on-disk encoding of a document.
func Encode(doc *types.FormDocument) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode form %s: %w", doc.FormID, err)
	}
	return append(data, '\n'), nil
}
