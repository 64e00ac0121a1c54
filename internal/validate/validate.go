// Package validate holds the user-facing rules for action fields: what the
// entry form enforces before submitting, and what the server enforces when
// strict validation is enabled.
package validate

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/eco-actions/internal/model"
)

const (
	// MinActionLen is the minimum trimmed length of a description.
	MinActionLen = 3
	// MaxPoints is the upper bound for points.
	MaxPoints = 1000
	// DateLayout is the layout produced by the entry form.
	DateLayout = "2006-01-02"
)

// Field names as they appear on the wire.
const (
	FieldAction = "action"
	FieldDate   = "date"
	FieldPoints = "points"
)

// Errors maps a field name to a human-readable message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// OrNil returns nil when there are no errors so callers can return it as error.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// FormValues is raw form input, as typed by a user.
type FormValues struct {
	Action string
	Date   string
	Points string
}

// Form validates raw form values and converts them to an ActionInput.
// The description is trimmed and points are parsed as an integer.
func Form(f FormValues, now time.Time) (model.ActionInput, Errors) {
	errs := Errors{}
	in := model.ActionInput{Action: strings.TrimSpace(f.Action), Date: strings.TrimSpace(f.Date)}

	checkAction(errs, in.Action)
	checkDate(errs, in.Date, now)

	p := strings.TrimSpace(f.Points)
	if p == "" {
		errs[FieldPoints] = "Points are required"
	} else if n, err := strconv.Atoi(p); err != nil {
		errs[FieldPoints] = "Points must be a positive number"
	} else {
		in.Points = float64(n)
		checkPoints(errs, in.Points)
	}
	return in, errs
}

// Input applies the form rules to an already-typed input.
func Input(in model.ActionInput, now time.Time) Errors {
	errs := Errors{}
	checkAction(errs, strings.TrimSpace(in.Action))
	checkDate(errs, strings.TrimSpace(in.Date), now)
	checkPoints(errs, in.Points)
	return errs
}

// Patch applies the form rules to the fields a patch supplies.
func Patch(p model.ActionPatch, now time.Time) Errors {
	errs := Errors{}
	if p.Action != nil {
		checkAction(errs, strings.TrimSpace(*p.Action))
	}
	if p.Date != nil {
		checkDate(errs, strings.TrimSpace(*p.Date), now)
	}
	if p.Points != nil {
		checkPoints(errs, *p.Points)
	}
	return errs
}

func checkAction(errs Errors, action string) {
	switch {
	case action == "":
		errs[FieldAction] = "Action description is required"
	case len([]rune(action)) < MinActionLen:
		errs[FieldAction] = "Action description must be at least 3 characters"
	}
}

func checkDate(errs Errors, date string, now time.Time) {
	if date == "" {
		errs[FieldDate] = "Date is required"
		return
	}
	d, ok := ParseDate(date)
	if !ok {
		errs[FieldDate] = "Date must be a valid date (YYYY-MM-DD)"
		return
	}
	if d.After(now) {
		errs[FieldDate] = "Date cannot be in the future"
	}
}

func checkPoints(errs Errors, points float64) {
	switch {
	case points < 0:
		errs[FieldPoints] = "Points must be a positive number"
	case points > MaxPoints:
		errs[FieldPoints] = "Points cannot exceed 1000"
	}
}

// ParseDate accepts a calendar date (interpreted as UTC midnight) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
