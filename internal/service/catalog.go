package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
)

const feedSize = 3

// EventFilter narrows the public event list.
type EventFilter struct {
	Search         string
	Type           string
	Subspecialties []string
	// Sort is "date" (default, soonest first) or "price" (cheapest first).
	Sort string
}

// FacultyAppearance is a faculty member as listed on an event page.
type FacultyAppearance struct {
	FacultyID   string  `json:"faculty_id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Institution string  `json:"institution"`
	PhotoURL    *string `json:"photo_url"`
}

// EventDetail is a published event with its faculty.
type EventDetail struct {
	Event   models.Event        `json:"event"`
	Faculty []FacultyAppearance `json:"faculty"`
}

// MembersFeed is the members' home page content.
type MembersFeed struct {
	UpcomingEvents []models.Event `json:"upcoming_events"`
	LatestVideos   []models.Video `json:"latest_videos"`
}

// CatalogRepos groups the repositories the catalog reads.
type CatalogRepos struct {
	Events       repository.CollectionRepository[models.Event]
	Faculty      repository.CollectionRepository[models.Faculty]
	Fellowships  repository.CollectionRepository[models.Fellowship]
	Videos       repository.CollectionRepository[models.Video]
	Podcasts     repository.CollectionRepository[models.Podcast]
	Sponsors     repository.CollectionRepository[models.Sponsor]
	Team         repository.CollectionRepository[models.TeamMember]
	EventFaculty repository.EventFacultyRepository
}

// CatalogService serves published content to the public site and members.
type CatalogService struct {
	repos CatalogRepos
	now   func() time.Time
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(repos CatalogRepos) *CatalogService {
	return &CatalogService{repos: repos, now: time.Now}
}

var published = map[string]any{"status": string(models.StatusPublished)}

// Events lists published events matching f.
func (s *CatalogService) Events(ctx context.Context, f EventFilter) ([]models.Event, error) {
	q := repository.Query{OrderBy: "starts_at", Ascending: true, Eq: map[string]any{"status": string(models.StatusPublished)}}
	if f.Type != "" && f.Type != "all" {
		q.Eq["event_type"] = f.Type
	}
	events, err := s.repos.Events.List(ctx, q)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	events = slices.DeleteFunc(events, func(e models.Event) bool {
		if search != "" && !containsFold(search, &e.Title, e.DescriptionPlain, e.Location) {
			return true
		}
		if len(f.Subspecialties) > 0 && !slices.ContainsFunc(e.Subspecialties, func(sub string) bool {
			return slices.Contains(f.Subspecialties, sub)
		}) {
			return true
		}
		return false
	})

	if f.Sort == "price" {
		slices.SortStableFunc(events, func(a, b models.Event) int { return a.PricePence - b.PricePence })
	}
	return events, nil
}

func containsFold(needle string, fields ...*string) bool {
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), needle) {
			return true
		}
	}
	return false
}

// EventBySlug returns a published event and the faculty attached to it.
func (s *CatalogService) EventBySlug(ctx context.Context, slug string) (*EventDetail, error) {
	events, err := s.repos.Events.List(ctx, repository.Query{
		Eq:    map[string]any{"slug": slug, "status": string(models.StatusPublished)},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, apperrors.NewStoreError("get", "events", apperrors.ErrNotFound)
	}
	detail := &EventDetail{Event: events[0], Faculty: []FacultyAppearance{}}

	links, err := s.repos.EventFaculty.ListForEvent(ctx, detail.Event.ID)
	if err != nil || len(links) == 0 {
		return detail, err
	}
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.FacultyID
	}
	rows, err := s.repos.Faculty.List(ctx, repository.Query{In: map[string][]string{"id": ids}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Faculty, len(rows))
	for _, f := range rows {
		byID[f.ID] = f
	}

	for _, l := range links {
		f, ok := byID[l.FacultyID]
		if !ok {
			continue
		}
		appearance := FacultyAppearance{FacultyID: l.FacultyID, Name: f.FullName, Role: "Faculty", PhotoURL: f.PhotoURL}
		switch {
		case l.Role != nil && *l.Role != "":
			appearance.Role = *l.Role
		case f.PositionTitle != nil && *f.PositionTitle != "":
			appearance.Role = *f.PositionTitle
		}
		if f.Hospital != nil {
			appearance.Institution = *f.Hospital
		}
		detail.Faculty = append(detail.Faculty, appearance)
	}
	return detail, nil
}

// Fellowships lists published fellowships, newest first.
func (s *CatalogService) Fellowships(ctx context.Context) ([]models.Fellowship, error) {
	return s.repos.Fellowships.List(ctx, repository.Query{OrderBy: "created_at", Eq: published})
}

// Sponsors lists published sponsors in display order.
func (s *CatalogService) Sponsors(ctx context.Context) ([]models.Sponsor, error) {
	return s.repos.Sponsors.List(ctx, repository.Query{OrderBy: "sort_order", Ascending: true, Eq: published})
}

// Team lists the published executive committee in display order.
func (s *CatalogService) Team(ctx context.Context) ([]models.TeamMember, error) {
	return s.repos.Team.List(ctx, repository.Query{OrderBy: "sort_order", Ascending: true, Eq: published})
}

// MembersFeed returns the next few published events and the latest videos.
func (s *CatalogService) MembersFeed(ctx context.Context) (*MembersFeed, error) {
	events, err := s.repos.Events.List(ctx, repository.Query{
		OrderBy:   "starts_at",
		Ascending: true,
		Eq:        published,
		Gte:       map[string]any{"starts_at": s.now().UTC()},
		Limit:     feedSize,
	})
	if err != nil {
		return nil, err
	}
	videos, err := s.repos.Videos.List(ctx, repository.Query{OrderBy: "created_at", Eq: published, Limit: feedSize})
	if err != nil {
		return nil, err
	}
	return &MembersFeed{UpcomingEvents: events, LatestVideos: videos}, nil
}

// Videos lists published videos, newest first.
func (s *CatalogService) Videos(ctx context.Context) ([]models.Video, error) {
	return s.repos.Videos.List(ctx, repository.Query{OrderBy: "created_at", Eq: published})
}

// Podcasts lists published episodes, newest first, optionally by tag.
func (s *CatalogService) Podcasts(ctx context.Context, tags []string) ([]models.Podcast, error) {
	episodes, err := s.repos.Podcasts.List(ctx, repository.Query{OrderBy: "created_at", Eq: published})
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return episodes, nil
	}
	return slices.DeleteFunc(episodes, func(p models.Podcast) bool {
		return !slices.ContainsFunc(p.Tags, func(t string) bool { return slices.Contains(tags, t) })
	}), nil
}
