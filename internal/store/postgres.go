package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cchai186/commodity-price-tracker/internal/models"
)

// Postgres stores runs in a gorm-managed database.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres creates a store backed by db.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateRun(run *models.Run, stepNames []string) error {
	run.ID = uuid.New().String()
	run.Status = models.RunStatusPending
	run.CreatedAt = time.Now()
	run.UpdatedAt = time.Now()

	if err := s.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for i, name := range stepNames {
		step := &models.RunStep{
			RunID:     run.ID,
			Name:      name,
			Seq:       i,
			Status:    models.StepStatusPending,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.db.Create(step).Error; err != nil {
			return fmt.Errorf("failed to create run step: %w", err)
		}
		run.Steps = append(run.Steps, *step)
	}

	return nil
}

func (s *Postgres) BeginRun(runID string) error {
	now := time.Now()
	result := s.db.Model(&models.Run{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"status":     models.RunStatusRunning,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to begin run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) FinishRun(runID string, status string, errorMessage string) error {
	now := time.Now()
	result := s.db.Model(&models.Run{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
			"completed_at":  now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to finish run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) BeginStep(runID string, seq int) error {
	now := time.Now()
	result := s.db.Model(&models.RunStep{}).
		Where("run_id = ? AND seq = ?", runID, seq).
		Updates(map[string]interface{}{
			"status":     models.StepStatusRunning,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to begin step: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) FinishStep(runID string, seq int, status string, errorMessage string, detail string) error {
	now := time.Now()
	result := s.db.Model(&models.RunStep{}).
		Where("run_id = ? AND seq = ?", runID, seq).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
			"detail":        detail,
			"completed_at":  now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to finish step: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) SkipStepsFrom(runID string, seq int) error {
	now := time.Now()
	if err := s.db.Model(&models.RunStep{}).
		Where("run_id = ? AND seq >= ? AND status = ?", runID, seq, models.StepStatusPending).
		Updates(map[string]interface{}{
			"status":     models.StepStatusSkipped,
			"updated_at": now,
		}).Error; err != nil {
		return fmt.Errorf("failed to skip steps: %w", err)
	}
	return nil
}

func (s *Postgres) GetRun(runID string) (*models.Run, error) {
	var run models.Run
	if err := s.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("run_steps.seq ASC")
	}).First(&run, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (s *Postgres) ListRuns(limit, offset int, status string) ([]models.Run, int64, error) {
	var runs []models.Run
	var total int64

	query := s.db.Model(&models.Run{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&runs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, total, nil
}

func (s *Postgres) CountByStatus() (map[string]int64, error) {
	counts := make(map[string]int64)
	statuses := []string{
		models.RunStatusPending,
		models.RunStatusRunning,
		models.RunStatusSucceeded,
		models.RunStatusFailed,
	}
	for _, status := range statuses {
		var count int64
		if err := s.db.Model(&models.Run{}).Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count runs: %w", err)
		}
		counts[status] = count
	}
	return counts, nil
}
