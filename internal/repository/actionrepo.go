// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/eco-actions/internal/model"
)

// ActionStore loads and stores the whole action collection as one document.
type ActionStore interface {
	// Read returns the stored collection. A missing document is initialized
	// and a corrupt one is moved aside; neither is reported as an error.
	Read(ctx context.Context) (model.ReadResult, error)

	// Write replaces the stored collection with actions.
	Write(ctx context.Context, actions []model.Action) error
}
