package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/logger"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

// FileStore keeps the queue snapshot in a single JSON file. Writes go to
// a temp sibling which is fsynced and renamed over the live file, so a
// crash mid-write leaves the previous snapshot intact.
type FileStore struct {
	path string
	lg   *logger.Logger
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lg: logger.New("queue-store")}
}

func (f *FileStore) Load(ctx context.Context) (domain.QueueState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.lg.Error("queue_file_unreadable", err, map[string]any{"path": f.path})
		}
		return Fresh(), nil
	}
	var st domain.QueueState
	if err := json.Unmarshal(data, &st); err != nil {
		f.lg.Error("queue_file_corrupt", err, map[string]any{"path": f.path})
		return Fresh(), nil
	}
	if st.Orders == nil {
		st.Orders = []domain.Order{}
	}
	return st, nil
}

func (f *FileStore) Save(ctx context.Context, st domain.QueueState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal queue state: %w", err)
	}
	return f.writeAtomic(f.path, data)
}

// Archive appends the given orders to the dated archive file next to the
// live snapshot (<queue>.archive-YYYY-MM-DD.json).
func (f *FileStore) Archive(ctx context.Context, date string, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	path := f.archivePath(date)
	existing := []domain.Order{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			f.lg.Error("archive_file_corrupt", err, map[string]any{"path": path})
			existing = existing[:0]
		}
	}
	existing = append(existing, orders...)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}
	return f.writeAtomic(path, data)
}

func (f *FileStore) archivePath(date string) string {
	dir, base := filepath.Split(f.path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, fmt.Sprintf("%s.archive-%s%s", base[:len(base)-len(ext)], date, ext))
}

// writeAtomic commits data via write-to-temp-then-rename. The temp file
// lives in the target directory so the rename never crosses filesystems.
func (f *FileStore) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".queue-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("commit queue state: %w", err)
	}
	committed = true
	return nil
}
