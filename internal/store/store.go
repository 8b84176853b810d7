// Package store persists the run ledger: one row per pipeline run with
// its acceptance, import, assignment and notification tallies.
package store

import (
	"context"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// RunFilter specifies criteria for listing ledger entries.
type RunFilter struct {
	Kind   model.RunKind `json:"kind,omitempty"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	SaveRun(ctx context.Context, run model.Run) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
