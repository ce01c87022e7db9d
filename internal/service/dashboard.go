package service

import (
	"context"

	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
	"golang.org/x/sync/errgroup"
)

const recentEventCount = 5

// Counter is the part of a collection repository the dashboard needs.
type Counter interface {
	Name() string
	Count(ctx context.Context, eq map[string]any) (int64, error)
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	Counts       map[string]int64 `json:"counts"`
	RecentEvents []models.Event   `json:"recent_events"`
}

// DashboardService assembles the admin overview.
type DashboardService struct {
	counters []Counter
	events   repository.CollectionRepository[models.Event]
}

// NewDashboardService counts every collection in counters.
func NewDashboardService(events repository.CollectionRepository[models.Event], counters ...Counter) *DashboardService {
	return &DashboardService{counters: counters, events: events}
}

// Stats issues every head count concurrently and fails if any of them does.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	counts := make([]int64, len(s.counters))
	var recent []models.Event

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range s.counters {
		g.Go(func() error {
			n, err := c.Count(gctx, nil)
			counts[i] = n
			return err
		})
	}
	g.Go(func() error {
		var err error
		recent, err = s.events.List(gctx, repository.Query{OrderBy: "created_at", Limit: recentEventCount})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &DashboardStats{Counts: make(map[string]int64, len(s.counters)), RecentEvents: recent}
	for i, c := range s.counters {
		stats.Counts[c.Name()] = counts[i]
	}
	return stats, nil
}
