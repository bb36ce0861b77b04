package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cchai186/commodity-price-tracker/internal/models"
)

// Memory keeps runs in memory only. It backs the daemon when no database
// is configured and doubles as the test store.
type Memory struct {
	mu     sync.Mutex
	runs   map[string]*models.Run
	order  []string
	nextID uint
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		runs:   make(map[string]*models.Run),
		nextID: 1,
	}
}

func (s *Memory) CreateRun(run *models.Run, stepNames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = uuid.New().String()
	run.Status = models.RunStatusPending
	run.CreatedAt = time.Now()
	run.UpdatedAt = run.CreatedAt
	run.Steps = nil
	for i, name := range stepNames {
		run.Steps = append(run.Steps, models.RunStep{
			ID:        s.nextID,
			RunID:     run.ID,
			Name:      name,
			Seq:       i,
			Status:    models.StepStatusPending,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		s.nextID++
	}

	s.runs[run.ID] = cloneRun(run)
	s.order = append(s.order, run.ID)
	return nil
}

func (s *Memory) BeginRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	run.Status = models.RunStatusRunning
	run.StartedAt = &now
	run.UpdatedAt = now
	return nil
}

func (s *Memory) FinishRun(runID string, status string, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	run.Status = status
	run.ErrorMessage = errorMessage
	run.CompletedAt = &now
	run.UpdatedAt = now
	return nil
}

func (s *Memory) BeginStep(runID string, seq int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.step(runID, seq)
	if err != nil {
		return err
	}
	now := time.Now()
	step.Status = models.StepStatusRunning
	step.StartedAt = &now
	step.UpdatedAt = now
	return nil
}

func (s *Memory) FinishStep(runID string, seq int, status string, errorMessage string, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.step(runID, seq)
	if err != nil {
		return err
	}
	now := time.Now()
	step.Status = status
	step.ErrorMessage = errorMessage
	step.Detail = detail
	step.CompletedAt = &now
	step.UpdatedAt = now
	return nil
}

func (s *Memory) SkipStepsFrom(runID string, seq int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	for i := range run.Steps {
		if run.Steps[i].Seq >= seq && run.Steps[i].Status == models.StepStatusPending {
			run.Steps[i].Status = models.StepStatusSkipped
			run.Steps[i].UpdatedAt = now
		}
	}
	return nil
}

func (s *Memory) GetRun(runID string) (*models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

func (s *Memory) ListRuns(limit, offset int, status string) ([]models.Run, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Run
	for i := len(s.order) - 1; i >= 0; i-- {
		run := s.runs[s.order[i]]
		if status != "" && run.Status != status {
			continue
		}
		copied := *run
		copied.Steps = nil
		matched = append(matched, copied)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *Memory) CountByStatus() (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[string]int64{
		models.RunStatusPending:   0,
		models.RunStatusRunning:   0,
		models.RunStatusSucceeded: 0,
		models.RunStatusFailed:    0,
	}
	for _, run := range s.runs {
		counts[run.Status]++
	}
	return counts, nil
}

// step returns the stored step, caller holds the lock.
func (s *Memory) step(runID string, seq int) (*models.RunStep, error) {
	run, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range run.Steps {
		if run.Steps[i].Seq == seq {
			return &run.Steps[i], nil
		}
	}
	return nil, ErrNotFound
}

func cloneRun(run *models.Run) *models.Run {
	copied := *run
	copied.Steps = make([]models.RunStep, len(run.Steps))
	copy(copied.Steps, run.Steps)
	return &copied
}

var _ Store = (*Memory)(nil)
var _ Store = (*Postgres)(nil)
