package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/repository"
)

// DefaultDocument is the row name holding the collection.
const DefaultDocument = "actions"

const (
	selectDocument = `SELECT body FROM action_documents WHERE name=$1`
	upsertDocument = `INSERT INTO action_documents (name, body, updated_at) VALUES ($1, $2, now()) ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`
	insertBackup   = `INSERT INTO action_documents (name, body, updated_at) VALUES ($1, $2, now())`
)

// DocumentStore implements repository.ActionStore over one row of
// action_documents. The body column is text, so a corrupt document can be
// stored and recovered the same way as a corrupt file.
type DocumentStore struct {
	db   *DB
	name string
	log  *zap.Logger
	now  func() time.Time
}

var _ repository.ActionStore = (*DocumentStore)(nil)

// NewDocumentStore constructs a store for the named document.
func NewDocumentStore(db *DB, name string, log *zap.Logger) *DocumentStore {
	if name == "" {
		name = DefaultDocument
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentStore{db: db, name: name, log: log, now: time.Now}
}

// Read loads the collection. A missing row is created empty; a corrupt body
// is copied to a row named <name>.backup.<epoch-millis> and reset to [].
func (s *DocumentStore) Read(ctx context.Context) (model.ReadResult, error) {
	var body string
	err := s.db.Pool.QueryRow(ctx, selectDocument, s.name).Scan(&body)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		s.log.Info("document not found, creating empty collection", zap.String("document", s.name))
		if err := s.Write(ctx, nil); err != nil {
			return model.ReadResult{}, err
		}
		return model.ReadResult{Actions: []model.Action{}, Status: model.ReadInitialized}, nil
	case err != nil:
		return model.ReadResult{}, fmt.Errorf("select document: %w", err)
	}

	actions, decErr := repository.DecodeCollection([]byte(body))
	if decErr == nil {
		return model.ReadResult{Actions: actions, Status: model.ReadOK}, nil
	}

	backup := fmt.Sprintf("%s.backup.%d", s.name, s.now().UnixMilli())
	if err := s.recover(ctx, backup, body); err != nil {
		return model.ReadResult{}, err
	}
	s.log.Warn("corrupt document backed up",
		zap.String("document", s.name),
		zap.String("backup", backup),
		zap.Error(decErr),
	)
	return model.ReadResult{Actions: []model.Action{}, Status: model.ReadRecovered, BackupPath: backup}, nil
}

func (s *DocumentStore) recover(ctx context.Context, backup, body string) (err error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin recovery: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("commit recovery: %w", e)
		}
	}()

	if _, err = tx.Exec(ctx, insertBackup, backup, body); err != nil {
		return fmt.Errorf("insert backup: %w", err)
	}
	if _, err = tx.Exec(ctx, upsertDocument, s.name, "[]"); err != nil {
		return fmt.Errorf("reset document: %w", err)
	}
	return nil
}

// Write replaces the document body with the pretty-printed collection.
func (s *DocumentStore) Write(ctx context.Context, actions []model.Action) error {
	data, err := repository.EncodeCollection(actions)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if _, err := s.db.Pool.Exec(ctx, upsertDocument, s.name, string(data)); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	s.log.Debug("wrote actions", zap.Int("count", len(actions)), zap.String("document", s.name))
	return nil
}
