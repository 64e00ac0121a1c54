// Package service implements the action operations on top of an ActionStore.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/errs"
	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/repository"
	"github.com/and161185/eco-actions/internal/validate"
)

// DeletedMessage is the confirmation text returned by Delete.
const DeletedMessage = "Sustainability action deleted successfully"

// ActionService defines the operations over the action collection.
// Every operation reads the whole collection and every mutation writes it back.
type ActionService interface {
	// List returns the collection in storage order.
	List(ctx context.Context) ([]model.Action, error)
	// Create appends a new action with a generated id.
	Create(ctx context.Context, in model.ActionInput) (model.Action, error)
	// Replace overwrites all fields of the action with id.
	Replace(ctx context.Context, id int64, in model.ActionInput) (model.Action, error)
	// Patch overwrites only the supplied fields of the action with id.
	Patch(ctx context.Context, id int64, p model.ActionPatch) (model.Action, error)
	// Delete removes the action with id.
	Delete(ctx context.Context, id int64) (model.DeleteResult, error)
}

// ValidationError lists rejected fields. It unwraps to errs.ErrValidation.
type ValidationError struct {
	Fields validate.Errors
}

func (e *ValidationError) Error() string { return "validation: " + e.Fields.Error() }

func (e *ValidationError) Unwrap() error { return errs.ErrValidation }

// ActionServiceImpl is the store-backed ActionService.
// There is no lock around read-modify-write: concurrent mutations can lose
// updates, the same as two processes sharing the file would.
type ActionServiceImpl struct {
	store  repository.ActionStore
	log    *zap.Logger
	strict bool
	now    func() time.Time

	mu     sync.Mutex
	issued int64 // highest id handed out by this process
}

var _ ActionService = (*ActionServiceImpl)(nil)

// NewActionService constructs the service. With strict set, the entry form
// rules from package validate are enforced on Create, Replace and Patch.
func NewActionService(store repository.ActionStore, log *zap.Logger, strict bool) *ActionServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActionServiceImpl{store: store, log: log, strict: strict, now: time.Now}
}

// ParseID parses a path id. Anything but a base-10 integer is errs.ErrInvalidID.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidID, raw)
	}
	return id, nil
}

// List returns every stored action, unfiltered and unsorted.
func (s *ActionServiceImpl) List(ctx context.Context) ([]model.Action, error) {
	return s.read(ctx)
}

// Create assigns max(existing ids, ids issued so far)+1 and appends.
func (s *ActionServiceImpl) Create(ctx context.Context, in model.ActionInput) (model.Action, error) {
	if err := s.checkInput(in); err != nil {
		return model.Action{}, err
	}
	actions, err := s.read(ctx)
	if err != nil {
		return model.Action{}, err
	}

	a := model.Action{ID: s.nextID(actions), Action: in.Action, Date: in.Date, Points: in.Points}
	actions = append(actions, a)
	if err := s.store.Write(ctx, actions); err != nil {
		return model.Action{}, fmt.Errorf("create: %w", err)
	}
	return a, nil
}

// Replace overwrites action, date and points; the id is kept.
func (s *ActionServiceImpl) Replace(ctx context.Context, id int64, in model.ActionInput) (model.Action, error) {
	if err := s.checkInput(in); err != nil {
		return model.Action{}, err
	}
	actions, err := s.read(ctx)
	if err != nil {
		return model.Action{}, err
	}
	i := indexOf(actions, id)
	if i < 0 {
		return model.Action{}, fmt.Errorf("action %d: %w", id, errs.ErrNotFound)
	}

	a := model.Action{ID: id, Action: in.Action, Date: in.Date, Points: in.Points}
	actions[i] = a
	if err := s.store.Write(ctx, actions); err != nil {
		return model.Action{}, fmt.Errorf("replace: %w", err)
	}
	return a, nil
}

// Patch merges the supplied fields into the stored action.
func (s *ActionServiceImpl) Patch(ctx context.Context, id int64, p model.ActionPatch) (model.Action, error) {
	if s.strict {
		if fe := validate.Patch(p, s.now()); len(fe) > 0 {
			return model.Action{}, &ValidationError{Fields: fe}
		}
	}
	actions, err := s.read(ctx)
	if err != nil {
		return model.Action{}, err
	}
	i := indexOf(actions, id)
	if i < 0 {
		return model.Action{}, fmt.Errorf("action %d: %w", id, errs.ErrNotFound)
	}

	a := p.Apply(actions[i])
	actions[i] = a
	if err := s.store.Write(ctx, actions); err != nil {
		return model.Action{}, fmt.Errorf("patch: %w", err)
	}
	return a, nil
}

// Delete removes exactly one action and keeps the order of the rest.
func (s *ActionServiceImpl) Delete(ctx context.Context, id int64) (model.DeleteResult, error) {
	actions, err := s.read(ctx)
	if err != nil {
		return model.DeleteResult{}, err
	}
	i := indexOf(actions, id)
	if i < 0 {
		return model.DeleteResult{}, fmt.Errorf("action %d: %w", id, errs.ErrNotFound)
	}

	actions = append(actions[:i], actions[i+1:]...)
	if err := s.store.Write(ctx, actions); err != nil {
		return model.DeleteResult{}, fmt.Errorf("delete: %w", err)
	}
	return model.DeleteResult{Message: DeletedMessage, DeletedActionID: id}, nil
}

func (s *ActionServiceImpl) read(ctx context.Context) ([]model.Action, error) {
	res, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}
	if res.Status == model.ReadRecovered {
		s.log.Warn("action collection was reset after corruption", zap.String("backup", res.BackupPath))
	}
	s.observe(res.Actions)
	return res.Actions, nil
}

// observe raises the high-water mark to the largest stored id, so ids loaded
// from the store are never reissued after deletion either.
func (s *ActionServiceImpl) observe(actions []model.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		if a.ID > s.issued {
			s.issued = a.ID
		}
	}
}

func (s *ActionServiceImpl) checkInput(in model.ActionInput) error {
	if !s.strict {
		return nil
	}
	if fe := validate.Input(in, s.now()); len(fe) > 0 {
		return &ValidationError{Fields: fe}
	}
	return nil
}

func (s *ActionServiceImpl) nextID(actions []model.Action) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	top := s.issued
	for _, a := range actions {
		if a.ID > top {
			top = a.ID
		}
	}
	s.issued = top + 1
	return s.issued
}

func indexOf(actions []model.Action, id int64) int {
	for i := range actions {
		if actions[i].ID == id {
			return i
		}
	}
	return -1
}
