// Package store persists runs and their steps.
package store

import (
	"errors"

	"github.com/cchai186/commodity-price-tracker/internal/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Store is the run-history interface shared by the Postgres and in-memory
// implementations.
type Store interface {
	// CreateRun inserts a pending run with one pending step per name,
	// in order. The run ID is assigned here.
	CreateRun(run *models.Run, stepNames []string) error

	// BeginRun marks the run running and stamps StartedAt.
	BeginRun(runID string) error

	// FinishRun marks the run succeeded or failed and stamps CompletedAt.
	FinishRun(runID string, status string, errorMessage string) error

	// BeginStep marks the step at seq running.
	BeginStep(runID string, seq int) error

	// FinishStep records the outcome of the step at seq. detail carries
	// a JSON summary of the step output.
	FinishStep(runID string, seq int, status string, errorMessage string, detail string) error

	// SkipStepsFrom marks every still-pending step at or after seq as
	// skipped. Called when an earlier step aborts the run.
	SkipStepsFrom(runID string, seq int) error

	// GetRun returns a run with its steps.
	GetRun(runID string) (*models.Run, error)

	// ListRuns returns runs newest first, with the total count.
	ListRuns(limit, offset int, status string) ([]models.Run, int64, error)

	// CountByStatus returns run counts keyed by status.
	CountByStatus() (map[string]int64, error)
}
