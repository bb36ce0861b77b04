package models

import (
	"time"

	"gorm.io/gorm"
)

// Run statuses.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run triggers.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerOnce      = "once"
)

// Step statuses. Steps after an aborted one stay skipped.
const (
	StepStatusPending   = "pending"
	StepStatusRunning   = "running"
	StepStatusSucceeded = "succeeded"
	StepStatusFailed    = "failed"
	StepStatusSkipped   = "skipped"
)

// Run is one execution of the tracking pipeline.
type Run struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Trigger      string         `gorm:"not null;type:varchar(20);index" json:"trigger"` // scheduled, manual, once
	Status       string         `gorm:"not null;type:varchar(20);default:'pending';index" json:"status"`
	RequestedBy  string         `gorm:"type:varchar(255)" json:"requested_by"`
	ReportDate   string         `gorm:"type:varchar(10)" json:"report_date"` // YYYY-MM-DD row date
	StartedAt    *time.Time     `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
	ErrorMessage string         `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Steps []RunStep `gorm:"foreignKey:RunID" json:"steps,omitempty"`
}

func (Run) TableName() string {
	return "runs"
}

// RunStep is one stage of a run. Steps execute in Seq order.
type RunStep struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RunID        string     `gorm:"not null;type:varchar(36);index" json:"run_id"`
	Name         string     `gorm:"not null;type:varchar(50)" json:"name"`
	Seq          int        `gorm:"not null" json:"seq"`
	Status       string     `gorm:"not null;type:varchar(20);default:'pending'" json:"status"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	Detail       string     `gorm:"type:jsonb" json:"detail"` // JSON map of step output
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Run Run `gorm:"foreignKey:RunID" json:"run,omitempty"`
}

func (RunStep) TableName() string {
	return "run_steps"
}
