package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/and161185/eco-actions/internal/model"
)

// SortField is a sortable column.
type SortField string

// Sortable columns.
const (
	SortByID     SortField = "id"
	SortByAction SortField = "action"
	SortByDate   SortField = "date"
	SortByPoints SortField = "points"
)

// ParseSortField accepts a column name.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByID, SortByAction, SortByDate, SortByPoints:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q (want id, action, date or points)", s)
	}
}

// SortState is the current column and direction.
type SortState struct {
	Field SortField
	Desc  bool
}

// DefaultSort is ascending by id.
var DefaultSort = SortState{Field: SortByID}

// Toggle selects field: the same column flips direction, a new column starts ascending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		return SortState{Field: field, Desc: !s.Desc}
	}
	return SortState{Field: field}
}

// Sorted returns a sorted copy; the input is not modified.
// Text columns compare case-insensitively; ties keep storage order.
func Sorted(actions []model.Action, st SortState) []model.Action {
	out := append([]model.Action(nil), actions...)
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], st.Field)
		if st.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compare(a, b model.Action, f SortField) int {
	switch f {
	case SortByAction:
		return strings.Compare(strings.ToLower(a.Action), strings.ToLower(b.Action))
	case SortByDate:
		return strings.Compare(strings.ToLower(a.Date), strings.ToLower(b.Date))
	case SortByPoints:
		return cmpNum(a.Points, b.Points)
	default:
		return cmpNum(float64(a.ID), float64(b.ID))
	}
}

func cmpNum(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// TotalPoints sums points over the collection.
func TotalPoints(actions []model.Action) float64 {
	var sum float64
	for _, a := range actions {
		sum += a.Points
	}
	return sum
}
