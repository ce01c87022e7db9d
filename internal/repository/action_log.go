package repository

import (
	"context"
	"fmt"

	"github.com/JAFletch-surg/dukes-club/internal/models"
	"gorm.io/gorm"
)

// ActionLogRepository persists audit records.
type ActionLogRepository interface {
	Create(ctx context.Context, entry *models.ActionLog) error
	ListRecent(ctx context.Context, limit int) ([]models.ActionLog, error)
}

type actionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository creates a new ActionLogRepository instance.
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &actionLogRepository{db: db}
}

func (r *actionLogRepository) Create(ctx context.Context, entry *models.ActionLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create action log: %w", err)
	}
	return nil
}

func (r *actionLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ActionLog, error) {
	logs := make([]models.ActionLog, 0, limit)
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list action logs: %w", err)
	}
	return logs, nil
}
