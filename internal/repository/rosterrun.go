package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrRosterRunNotFound indicates the run id is unknown.
var ErrRosterRunNotFound = errors.New("roster run not found")

// RosterRun is one async solve job: the submitted input, the lifecycle
// state, and eventually the result document.
type RosterRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Status       string         `gorm:"index" json:"status"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	StartedAt    *time.Time     `json:"startedAt,omitempty"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
	WallTime     float64        `json:"wallTimeSeconds"`
	Input        datatypes.JSON `json:"-"`
	Result       datatypes.JSON `json:"result,omitempty"`
	WarningCount int            `json:"warningCount"`
	Error        string         `json:"error,omitempty"`
}

// RosterRunRepository persists roster runs.
type RosterRunRepository struct {
	db *gorm.DB
}

// NewRosterRunRepository creates a new RosterRunRepository.
func NewRosterRunRepository(db *gorm.DB) *RosterRunRepository {
	return &RosterRunRepository{db: db}
}

// Create inserts a new run record.
func (r *RosterRunRepository) Create(ctx context.Context, run *RosterRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// GetByID loads a run by id.
func (r *RosterRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*RosterRun, error) {
	var run RosterRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// Update saves changed run fields.
func (r *RosterRunRepository) Update(ctx context.Context, run *RosterRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// ListRecent returns the latest runs, newest first.
func (r *RosterRunRepository) ListRecent(ctx context.Context, limit int) ([]RosterRun, error) {
	var runs []RosterRun
	err := r.db.WithContext(ctx).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
