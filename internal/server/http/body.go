package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/validate"
)

var requiredFields = []string{validate.FieldAction, validate.FieldDate, validate.FieldPoints}

var expectedTypes = map[string]string{
	validate.FieldAction: "string",
	validate.FieldDate:   "string",
	validate.FieldPoints: "number",
}

// actionBody is an untyped request body checked against the Action shape.
// A text field counts as received when it is present, non-null and non-empty.
// points counts as received whenever present, null included.
type actionBody struct {
	Action *string
	Date   *string
	Points *float64

	received map[string]bool
	badType  bool
}

type bodyError struct {
	status int
	msg    string
}

func (e *bodyError) Error() string { return e.msg }

// decodeActionBody reads a JSON object or a urlencoded form. An empty body is an empty object.
func decodeActionBody(r *http.Request) (actionBody, error) {
	b := actionBody{received: map[string]bool{}}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return b, classifyReadErr(err)
		}
		for _, f := range requiredFields {
			if _, ok := r.PostForm[f]; !ok {
				continue
			}
			v := r.PostForm.Get(f)
			b.set(f, v)
		}
		return b, nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return b, classifyReadErr(err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return b, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return b, &bodyError{status: http.StatusBadRequest, msg: "Invalid JSON body"}
	}
	for _, f := range requiredFields {
		v, ok := fields[f]
		if !ok {
			continue
		}
		if bytes.Equal(v, []byte("null")) {
			// null text is treated as missing; null points is a present non-number.
			if f == validate.FieldPoints {
				b.received[f] = true
				b.badType = true
			}
			continue
		}
		b.setJSON(f, v)
	}
	return b, nil
}

func classifyReadErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &bodyError{status: http.StatusRequestEntityTooLarge, msg: "Request body too large"}
	}
	return &bodyError{status: http.StatusBadRequest, msg: fmt.Sprintf("Unreadable request body: %v", err)}
}

func (b *actionBody) set(field, v string) {
	switch field {
	case validate.FieldAction:
		b.Action = &v
		b.received[field] = v != ""
	case validate.FieldDate:
		b.Date = &v
		b.received[field] = v != ""
	case validate.FieldPoints:
		b.received[field] = true
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			b.badType = true
			return
		}
		b.Points = &n
	}
}

func (b *actionBody) setJSON(field string, v json.RawMessage) {
	switch field {
	case validate.FieldAction, validate.FieldDate:
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			b.received[field] = true
			b.badType = true
			return
		}
		if field == validate.FieldAction {
			b.Action = &s
		} else {
			b.Date = &s
		}
		b.received[field] = s != ""
	case validate.FieldPoints:
		b.received[field] = true
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			b.badType = true
			return
		}
		b.Points = &n
	}
}

func (b actionBody) complete() bool {
	for _, f := range requiredFields {
		if !b.received[f] {
			return false
		}
	}
	return true
}

func (b actionBody) receivedAll() map[string]bool {
	out := make(map[string]bool, len(requiredFields))
	for _, f := range requiredFields {
		out[f] = b.received[f]
	}
	return out
}

// input is valid only after complete() and !badType.
func (b actionBody) input() model.ActionInput {
	return model.ActionInput{Action: *b.Action, Date: *b.Date, Points: *b.Points}
}

func (b actionBody) patch() model.ActionPatch {
	return model.ActionPatch{Action: b.Action, Date: b.Date, Points: b.Points}
}
