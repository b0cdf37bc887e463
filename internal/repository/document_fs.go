package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"steamprofile-rest-api/internal/model"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// FSDocumentStore keeps one directory per numeric identity under root, one
// JSON file per category. It provides no cross-document locking.
type FSDocumentStore struct {
	root   string
	logger *zap.Logger
}

// NewFSDocumentStore creates a store rooted at dir, creating it if needed.
func NewFSDocumentStore(dir string, logger *zap.Logger) (*FSDocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &FSDocumentStore{root: dir, logger: logger.Named("store")}, nil
}

// Root returns the store directory.
func (s *FSDocumentStore) Root() string {
	return s.root
}

func (s *FSDocumentStore) path(steamID string, category model.Category) (string, error) {
	if !model.IsSteam64(steamID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, steamID)
	}
	if !category.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return filepath.Join(s.root, steamID, category.FileName()), nil
}

// Read decodes a document into v.
func (s *FSDocumentStore) Read(ctx context.Context, steamID string, category model.Category, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p, err := s.path(steamID, category)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Unreadable document treated as absent",
				zap.String("steam_id", steamID),
				zap.String("category", string(category)),
				zap.Error(err))
		}
		return false, nil
	}

	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		s.logger.Warn("Corrupt document treated as absent",
			zap.String("steam_id", steamID),
			zap.String("category", string(category)),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Write encodes v and atomically replaces the document via a temp file and rename.
func (s *FSDocumentStore) Write(ctx context.Context, steamID string, category model.Category, v any) error {
	p, err := s.path(steamID, category)
	if err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", category, err)
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create partition: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+string(category)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s document: %w", category, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s document: %w", category, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s document: %w", category, err)
	}

	// An abandoned request must not publish its document.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to publish %s document: %w", category, err)
	}
	committed = true
	return nil
}

// List returns partition ids in ascending order.
func (s *FSDocumentStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() && model.IsSteam64(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Ensure FSDocumentStore implements DocumentStore
var _ DocumentStore = (*FSDocumentStore)(nil)
