package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/and161185/eco-actions/internal/errs"
	"github.com/and161185/eco-actions/internal/model"
)

// DecodeCollection parses a stored document. Any document that is not a JSON
// array of action records yields an error wrapping errs.ErrNotArray.
func DecodeCollection(b []byte) ([]model.Action, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("decode collection: %w", errs.ErrNotArray)
	}
	var actions []model.Action
	if err := json.Unmarshal(trimmed, &actions); err != nil {
		return nil, fmt.Errorf("decode collection: %w: %v", errs.ErrNotArray, err)
	}
	if actions == nil {
		actions = []model.Action{}
	}
	return actions, nil
}

// EncodeCollection renders actions as a pretty-printed array (2-space indent).
// A nil slice is written as [] rather than null.
func EncodeCollection(actions []model.Action) ([]byte, error) {
	if actions == nil {
		actions = []model.Action{}
	}
	return json.MarshalIndent(actions, "", "  ")
}
