package repository

import (
	"context"
	"fmt"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"gorm.io/gorm"
)

// EventFacultyRepository manages the faculty attached to each event.
type EventFacultyRepository interface {
	ListForEvent(ctx context.Context, eventID string) ([]models.EventFaculty, error)
	Replace(ctx context.Context, eventID string, links []models.EventFaculty) error
}

type eventFacultyRepository struct {
	db *gorm.DB
}

// NewEventFacultyRepository creates a new EventFacultyRepository instance.
func NewEventFacultyRepository(db *gorm.DB) EventFacultyRepository {
	return &eventFacultyRepository{db: db}
}

func (r *eventFacultyRepository) ListForEvent(ctx context.Context, eventID string) ([]models.EventFaculty, error) {
	links := make([]models.EventFaculty, 0)
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at").Find(&links).Error
	if err != nil {
		return nil, apperrors.NewStoreError("list", "event_faculty", fmt.Errorf("failed to list faculty for event %s: %w", eventID, err))
	}
	return links, nil
}

// Replace swaps the event's faculty set in one transaction, so a failed
// insert leaves the previous associations in place.
func (r *eventFacultyRepository) Replace(ctx context.Context, eventID string, links []models.EventFaculty) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventFaculty{}).Error; err != nil {
			return fmt.Errorf("failed to clear faculty for event %s: %w", eventID, err)
		}
		if len(links) == 0 {
			return nil
		}
		for i := range links {
			links[i].EventID = eventID
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("failed to attach faculty to event %s: %w", eventID, err)
		}
		return nil
	})
	return apperrors.NewStoreError("replace", "event_faculty", err)
}
