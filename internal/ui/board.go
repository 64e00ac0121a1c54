// Package ui holds the client-side state of the actions screen: the fetched
// collection, sort order, the action being edited and the error banner.
// Nothing here is persisted; every mutation is followed by a full refetch.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/validate"
)

// API is the subset of the client SDK the board drives.
type API interface {
	List(ctx context.Context) ([]model.Action, error)
	Create(ctx context.Context, in model.ActionInput) (model.Action, error)
	Replace(ctx context.Context, id int64, in model.ActionInput) (model.Action, error)
	Delete(ctx context.Context, id int64) (model.DeleteResult, error)
}

// Board is the screen state.
type Board struct {
	api     API
	now     func() time.Time
	actions []model.Action
	sort    SortState
	editing *model.Action
	banner  string
	busy    bool
}

// NewBoard constructs an empty board.
func NewBoard(api API) *Board {
	return &Board{api: api, now: time.Now, sort: DefaultSort}
}

// Actions returns the held collection in storage order.
func (b *Board) Actions() []model.Action { return b.actions }

// View returns the collection sorted by the current sort state.
func (b *Board) View() []model.Action { return Sorted(b.actions, b.sort) }

// Sort returns the current sort state.
func (b *Board) Sort() SortState { return b.sort }

// SortBy toggles the sort on field.
func (b *Board) SortBy(field SortField) { b.sort = b.sort.Toggle(field) }

// SetSort replaces the sort state.
func (b *Board) SetSort(s SortState) { b.sort = s }

// TotalPoints sums the held collection.
func (b *Board) TotalPoints() float64 { return TotalPoints(b.actions) }

// Banner is the last API error message, empty when dismissed.
func (b *Board) Banner() string { return b.banner }

// DismissBanner clears the error banner.
func (b *Board) DismissBanner() { b.banner = "" }

// Busy reports whether a request is in flight; the form is disabled meanwhile.
func (b *Board) Busy() bool { return b.busy }

// Editing returns the edit target, or nil when the form creates.
func (b *Board) Editing() *model.Action { return b.editing }

// Refresh refetches the whole collection.
func (b *Board) Refresh(ctx context.Context) error {
	b.busy = true
	defer func() { b.busy = false }()
	actions, err := b.api.List(ctx)
	if err != nil {
		b.banner = err.Error()
		return err
	}
	b.actions = actions
	b.banner = ""
	return nil
}

// StartEdit makes the action with id the edit target.
func (b *Board) StartEdit(id int64) error {
	for i := range b.actions {
		if b.actions[i].ID == id {
			a := b.actions[i]
			b.editing = &a
			return nil
		}
	}
	return fmt.Errorf("action %d is not loaded", id)
}

// CancelEdit returns the form to create mode.
func (b *Board) CancelEdit() { b.editing = nil }

// Submit validates the form, then creates or replaces and refetches.
// Field errors are returned without calling the API; API errors go to the banner.
func (b *Board) Submit(ctx context.Context, f validate.FormValues) (validate.Errors, error) {
	if b.busy {
		return nil, fmt.Errorf("a request is already in flight")
	}
	in, fe := validate.Form(f, b.now())
	if len(fe) > 0 {
		return fe, nil
	}
	return b.Save(ctx, in)
}

// Save is Submit for an already-typed input, e.g. an edit that keeps the
// stored points as they are.
func (b *Board) Save(ctx context.Context, in model.ActionInput) (validate.Errors, error) {
	if b.busy {
		return nil, fmt.Errorf("a request is already in flight")
	}
	if fe := validate.Input(in, b.now()); len(fe) > 0 {
		return fe, nil
	}

	b.busy = true
	var err error
	if b.editing != nil {
		_, err = b.api.Replace(ctx, b.editing.ID, in)
	} else {
		_, err = b.api.Create(ctx, in)
	}
	b.busy = false
	if err != nil {
		b.banner = err.Error()
		return nil, err
	}
	b.editing = nil
	return nil, b.Refresh(ctx)
}

// Delete removes the action with id after confirm approves it, then refetches.
// A declined confirmation is not an error.
func (b *Board) Delete(ctx context.Context, id int64, confirm func(model.Action) bool) (bool, error) {
	var target *model.Action
	for i := range b.actions {
		if b.actions[i].ID == id {
			target = &b.actions[i]
			break
		}
	}
	if target == nil {
		return false, fmt.Errorf("action %d is not loaded", id)
	}
	if confirm != nil && !confirm(*target) {
		return false, nil
	}

	b.busy = true
	_, err := b.api.Delete(ctx, id)
	b.busy = false
	if err != nil {
		b.banner = err.Error()
		return false, err
	}
	if b.editing != nil && b.editing.ID == id {
		b.editing = nil
	}
	return true, b.Refresh(ctx)
}
