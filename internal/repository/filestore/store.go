// Package filestore keeps the action collection in a single JSON file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/repository"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store implements repository.ActionStore over one JSON file.
// It is not safe for concurrent writers: the last Write wins.
type Store struct {
	path string
	log  *zap.Logger
	now  func() time.Time
}

var _ repository.ActionStore = (*Store)(nil)

// New constructs a file store for path.
func New(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Read loads the collection from disk.
//   - missing file: an empty array is written and ReadInitialized returned;
//   - unparseable or non-array file: the file is renamed to
//     <path>.backup.<epoch-millis>, an empty array is written and
//     ReadRecovered returned.
//
// Other I/O failures are returned as errors.
func (s *Store) Read(ctx context.Context) (model.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ReadResult{}, err
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("data file not found, creating empty collection", zap.String("path", s.path))
		if err := s.Write(ctx, nil); err != nil {
			return model.ReadResult{}, err
		}
		return model.ReadResult{Actions: []model.Action{}, Status: model.ReadInitialized}, nil
	}
	if err != nil {
		return model.ReadResult{}, fmt.Errorf("read data file: %w", err)
	}

	actions, decErr := repository.DecodeCollection(b)
	if decErr == nil {
		return model.ReadResult{Actions: actions, Status: model.ReadOK}, nil
	}

	backup := s.backupPath()
	if err := os.Rename(s.path, backup); err != nil {
		return model.ReadResult{}, fmt.Errorf("back up corrupt data file: %w", err)
	}
	s.log.Warn("corrupt data file backed up",
		zap.String("path", s.path),
		zap.String("backup", backup),
		zap.Error(decErr),
	)
	if err := s.Write(ctx, nil); err != nil {
		return model.ReadResult{}, err
	}
	return model.ReadResult{Actions: []model.Action{}, Status: model.ReadRecovered, BackupPath: backup}, nil
}

// Write serializes the whole collection and replaces the file via a
// temp file + rename in the same directory. The directory is created if absent.
func (s *Store) Write(ctx context.Context, actions []model.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := repository.EncodeCollection(actions)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to write data: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	s.log.Debug("wrote actions", zap.Int("count", len(actions)), zap.String("path", s.path))
	return nil
}

func (s *Store) backupPath() string {
	return fmt.Sprintf("%s.backup.%d", s.path, s.now().UnixMilli())
}

// Check reports whether the data directory exists (or can be created) and
// the data file, if present, can be opened for reading.
func (s *Store) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("data file: %w", err)
	}
	return f.Close()
}
