package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/validate"
)

type fakeAPI struct {
	actions  []model.Action
	nextID   int64
	lists    int
	created  []model.ActionInput
	replaced map[int64]model.ActionInput
	deleted  []int64
	err      error
}

func (f *fakeAPI) List(context.Context) ([]model.Action, error) {
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Action(nil), f.actions...), nil
}

func (f *fakeAPI) Create(_ context.Context, in model.ActionInput) (model.Action, error) {
	if f.err != nil {
		return model.Action{}, f.err
	}
	f.nextID++
	a := model.Action{ID: f.nextID, Action: in.Action, Date: in.Date, Points: in.Points}
	f.actions = append(f.actions, a)
	f.created = append(f.created, in)
	return a, nil
}

func (f *fakeAPI) Replace(_ context.Context, id int64, in model.ActionInput) (model.Action, error) {
	if f.replaced == nil {
		f.replaced = map[int64]model.ActionInput{}
	}
	f.replaced[id] = in
	return model.Action{ID: id, Action: in.Action, Date: in.Date, Points: in.Points}, f.err
}

func (f *fakeAPI) Delete(_ context.Context, id int64) (model.DeleteResult, error) {
	if f.err != nil {
		return model.DeleteResult{}, f.err
	}
	f.deleted = append(f.deleted, id)
	for i, a := range f.actions {
		if a.ID == id {
			f.actions = append(f.actions[:i], f.actions[i+1:]...)
			break
		}
	}
	return model.DeleteResult{DeletedActionID: id}, nil
}

var sample = []model.Action{
	{ID: 1, Action: "recycled", Date: "2024-01-03", Points: 5},
	{ID: 2, Action: "Biked", Date: "2024-01-01", Points: 20},
	{ID: 3, Action: "composted", Date: "2024-01-02", Points: 5},
}

func TestSortState_Toggle(t *testing.T) {
	s := DefaultSort.Toggle(SortByID)
	require.Equal(t, SortState{Field: SortByID, Desc: true}, s)
	s = s.Toggle(SortByPoints)
	require.Equal(t, SortState{Field: SortByPoints}, s)
}

func TestSorted(t *testing.T) {
	ids := func(as []model.Action) []int64 {
		out := make([]int64, len(as))
		for i, a := range as {
			out[i] = a.ID
		}
		return out
	}
	require.Equal(t, []int64{2, 3, 1}, ids(Sorted(sample, SortState{Field: SortByAction})))
	require.Equal(t, []int64{2, 3, 1}, ids(Sorted(sample, SortState{Field: SortByDate})))
	require.Equal(t, []int64{1, 3, 2}, ids(Sorted(sample, SortState{Field: SortByPoints})))
	require.Equal(t, []int64{2, 1, 3}, ids(Sorted(sample, SortState{Field: SortByPoints, Desc: true})))
	require.Equal(t, []int64{3, 2, 1}, ids(Sorted(sample, SortState{Field: SortByID, Desc: true})))
	require.Equal(t, int64(1), sample[0].ID, "input must not be reordered")
}

func TestParseSortField(t *testing.T) {
	f, err := ParseSortField(" Points ")
	require.NoError(t, err)
	require.Equal(t, SortByPoints, f)
	_, err = ParseSortField("color")
	require.Error(t, err)
}

func TestTotalPoints(t *testing.T) {
	require.Equal(t, 30.0, TotalPoints(sample))
	require.Zero(t, TotalPoints(nil))
}

func newBoard(api *fakeAPI) *Board {
	b := NewBoard(api)
	b.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }
	return b
}

func TestBoard_SubmitCreatesAndRefetches(t *testing.T) {
	api := &fakeAPI{}
	b := newBoard(api)
	ctx := context.Background()

	fe, err := b.Submit(ctx, validate.FormValues{Action: " Biked to work ", Date: "2024-01-10", Points: "10"})
	require.NoError(t, err)
	require.Empty(t, fe)
	require.Equal(t, []model.ActionInput{{Action: "Biked to work", Date: "2024-01-10", Points: 10}}, api.created)
	require.Equal(t, 1, api.lists)
	require.Len(t, b.Actions(), 1)
	require.False(t, b.Busy())
}

func TestBoard_SubmitFieldErrorsSkipAPI(t *testing.T) {
	api := &fakeAPI{}
	b := newBoard(api)

	fe, err := b.Submit(context.Background(), validate.FormValues{Action: "ab", Date: "2099-01-01", Points: "5000"})
	require.NoError(t, err)
	require.Len(t, fe, 3)
	require.Empty(t, api.created)
	require.Zero(t, api.lists)
}

func TestBoard_EditReplaces(t *testing.T) {
	api := &fakeAPI{actions: append([]model.Action(nil), sample...), nextID: 3}
	b := newBoard(api)
	ctx := context.Background()
	require.NoError(t, b.Refresh(ctx))

	require.NoError(t, b.StartEdit(2))
	require.Equal(t, int64(2), b.Editing().ID)
	_, err := b.Submit(ctx, validate.FormValues{Action: "Biked far", Date: "2024-01-01", Points: "30"})
	require.NoError(t, err)
	require.Equal(t, model.ActionInput{Action: "Biked far", Date: "2024-01-01", Points: 30}, api.replaced[2])
	require.Nil(t, b.Editing())

	require.Error(t, b.StartEdit(99))
}

func TestBoard_SaveKeepsFractionalPoints(t *testing.T) {
	api := &fakeAPI{actions: []model.Action{{ID: 1, Action: "Recycled", Date: "2024-01-08", Points: 2.5}}, nextID: 1}
	b := newBoard(api)
	ctx := context.Background()
	require.NoError(t, b.Refresh(ctx))

	require.NoError(t, b.StartEdit(1))
	fe, err := b.Save(ctx, model.ActionInput{Action: "Composted", Date: "2024-01-08", Points: 2.5})
	require.NoError(t, err)
	require.Empty(t, fe)
	require.Equal(t, model.ActionInput{Action: "Composted", Date: "2024-01-08", Points: 2.5}, api.replaced[1])

	require.NoError(t, b.StartEdit(1))
	fe, err = b.Save(ctx, model.ActionInput{Action: "ab", Date: "2024-01-08", Points: 2.5})
	require.NoError(t, err)
	require.Contains(t, fe, validate.FieldAction)
	require.NotNil(t, b.Editing())

	b.CancelEdit()
	require.Nil(t, b.Editing())
}

func TestBoard_DeleteConfirm(t *testing.T) {
	api := &fakeAPI{actions: append([]model.Action(nil), sample...)}
	b := newBoard(api)
	ctx := context.Background()
	require.NoError(t, b.Refresh(ctx))

	var asked string
	ok, err := b.Delete(ctx, 1, func(a model.Action) bool { asked = a.Action; return false })
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "recycled", asked)
	require.Empty(t, api.deleted)

	ok, err = b.Delete(ctx, 1, func(model.Action) bool { return true })
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int64{1}, api.deleted)
	require.Len(t, b.Actions(), 2)
}

func TestBoard_APIErrorGoesToBanner(t *testing.T) {
	api := &fakeAPI{err: errors.New("Failed to fetch actions: Network Error")}
	b := newBoard(api)

	require.Error(t, b.Refresh(context.Background()))
	require.Equal(t, "Failed to fetch actions: Network Error", b.Banner())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, b))
	require.Contains(t, buf.String(), "Network Error")

	b.DismissBanner()
	require.Empty(t, b.Banner())
}

func TestRender_TableAndTotals(t *testing.T) {
	api := &fakeAPI{actions: append([]model.Action(nil), sample...)}
	b := newBoard(api)
	require.NoError(t, b.Refresh(context.Background()))
	b.SortBy(SortByPoints)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, b))
	out := buf.String()
	require.Contains(t, out, "POINTS ▲")
	require.Contains(t, out, "composted")
	require.Contains(t, out, "Total actions: 3")
	require.Contains(t, out, "Total points: 30")

	buf.Reset()
	require.NoError(t, Render(&buf, newBoard(&fakeAPI{})))
	require.Contains(t, buf.String(), "No sustainability actions recorded yet.")
}

func TestFormatPoints(t *testing.T) {
	require.Equal(t, "10", FormatPoints(10))
	require.Equal(t, "2.5", FormatPoints(2.5))
}
