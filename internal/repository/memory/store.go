// Package memory provides an in-process ActionStore used by tests and demos.
package memory

import (
	"context"
	"sync"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/repository"
)

// Store keeps the collection in memory. Read and Write hand out copies so
// callers cannot mutate the stored slice.
type Store struct {
	mu          sync.Mutex
	actions     []model.Action
	initialized bool

	// ReadErr and WriteErr, when set, are returned by the next calls.
	ReadErr  error
	WriteErr error

	Writes int
}

var _ repository.ActionStore = (*Store)(nil)

// New returns a store. With no arguments it behaves like a missing file.
func New(seed ...model.Action) *Store {
	s := &Store{}
	if len(seed) > 0 {
		s.actions = append([]model.Action(nil), seed...)
		s.initialized = true
	}
	return s
}

// Read implements repository.ActionStore.
func (s *Store) Read(ctx context.Context) (model.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ReadResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return model.ReadResult{}, s.ReadErr
	}
	if !s.initialized {
		s.initialized = true
		s.actions = []model.Action{}
		return model.ReadResult{Actions: []model.Action{}, Status: model.ReadInitialized}, nil
	}
	out := make([]model.Action, len(s.actions))
	copy(out, s.actions)
	return model.ReadResult{Actions: out, Status: model.ReadOK}, nil
}

// Write implements repository.ActionStore.
func (s *Store) Write(ctx context.Context, actions []model.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.actions = append(make([]model.Action, 0, len(actions)), actions...)
	s.initialized = true
	s.Writes++
	return nil
}

// Snapshot returns a copy of the stored collection.
func (s *Store) Snapshot() []model.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Action(nil), s.actions...)
}
