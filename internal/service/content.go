package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
)

// FacultyLink is one requested faculty association for an event.
type FacultyLink struct {
	FacultyID string  `json:"faculty_id" binding:"required"`
	Role      *string `json:"role"`
}

// EventFacultyService maintains the faculty attached to events.
type EventFacultyService struct {
	events  repository.CollectionRepository[models.Event]
	faculty repository.CollectionRepository[models.Faculty]
	links   repository.EventFacultyRepository
}

// NewEventFacultyService creates an EventFacultyService.
func NewEventFacultyService(
	events repository.CollectionRepository[models.Event],
	faculty repository.CollectionRepository[models.Faculty],
	links repository.EventFacultyRepository,
) *EventFacultyService {
	return &EventFacultyService{events: events, faculty: faculty, links: links}
}

// List returns the event's current associations.
func (s *EventFacultyService) List(ctx context.Context, eventID string) ([]models.EventFaculty, error) {
	return s.links.ListForEvent(ctx, eventID)
}

// Set replaces the event's faculty with links. Duplicate faculty IDs keep
// the first occurrence. Every faculty ID must exist.
func (s *EventFacultyService) Set(ctx context.Context, eventID string, links []FacultyLink) ([]models.EventFaculty, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(links))
	rows := make([]models.EventFaculty, 0, len(links))
	ids := make([]string, 0, len(links))
	for _, l := range links {
		if l.FacultyID == "" || seen[l.FacultyID] {
			continue
		}
		seen[l.FacultyID] = true
		ids = append(ids, l.FacultyID)
		rows = append(rows, models.EventFaculty{EventID: eventID, FacultyID: l.FacultyID, Role: l.Role})
	}

	if len(ids) > 0 {
		found, err := s.faculty.List(ctx, repository.Query{In: map[string][]string{"id": ids}})
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			return nil, apperrors.NewStoreError("replace", "event_faculty", fmt.Errorf("unknown faculty in request: %w", apperrors.ErrNotFound))
		}
	}

	if err := s.links.Replace(ctx, eventID, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FlagService handles member reports against exam questions.
type FlagService struct {
	flags     repository.CollectionRepository[models.QuestionFlag]
	questions repository.CollectionRepository[models.Question]
	now       func() time.Time
}

// NewFlagService creates a FlagService.
func NewFlagService(flags repository.CollectionRepository[models.QuestionFlag], questions repository.CollectionRepository[models.Question]) *FlagService {
	return &FlagService{flags: flags, questions: questions, now: time.Now}
}

// Report records a member's flag against a question.
func (s *FlagService) Report(ctx context.Context, reporterID, questionID, reason string) (*models.QuestionFlag, error) {
	if _, err := s.questions.Get(ctx, questionID); err != nil {
		return nil, err
	}
	flag := &models.QuestionFlag{QuestionID: questionID, Reason: reason, ReportedBy: &reporterID}
	if err := s.flags.Insert(ctx, flag); err != nil {
		return nil, err
	}
	return flag, nil
}

// Open lists unresolved flags, newest first.
func (s *FlagService) Open(ctx context.Context) ([]models.QuestionFlag, error) {
	return s.flags.List(ctx, repository.Query{OrderBy: "created_at", Eq: map[string]any{"status": models.FlagOpen}})
}

// Resolve marks a flag resolved and stamps resolved_at.
func (s *FlagService) Resolve(ctx context.Context, id string) (*models.QuestionFlag, error) {
	return s.flags.Update(ctx, id, mustPayload(map[string]any{
		"status":      models.FlagResolved,
		"resolved_at": s.now().UTC(),
	}))
}
