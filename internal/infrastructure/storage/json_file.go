package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vitos/perp_screener/internal/domain"
)

// FileStore keeps each ledger as a JSON array in its own file. Writes go to a
// temporary file in the same directory and are renamed over the old one, so a
// reader never sees a partial ledger.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(kind domain.LedgerKind) string {
	if kind == domain.LedgerSwing {
		return filepath.Join(s.dir, "swing_positions.json")
	}
	return filepath.Join(s.dir, "positions.json")
}

func (s *FileStore) LoadPositions(ctx context.Context, kind domain.LedgerKind) ([]domain.Position, error) {
	data, err := os.ReadFile(s.path(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var positions []domain.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", s.path(kind), domain.ErrLedgerCorrupt, err)
	}
	return positions, nil
}

func (s *FileStore) SavePositions(ctx context.Context, kind domain.LedgerKind, positions []domain.Position) error {
	if positions == nil {
		positions = []domain.Position{}
	}
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".ledger-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(kind))
}
