package collection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/database"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(t *testing.T, v map[string]any) models.Payload {
	t.Helper()
	p, err := models.PayloadOf(v)
	require.NoError(t, err)
	return p
}

func names(rows []models.Sponsor) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func newSponsorAdapter(t *testing.T) *Adapter[models.Sponsor] {
	t.Helper()
	repo := repository.NewCollectionRepository[models.Sponsor](database.NewTestDB(t))
	return NewAdapter(repo, "sort_order", true)
}

// =============================================================================
// Store-backed behaviour
// =============================================================================

func TestAdapter_CreateThenListRoundTrips(t *testing.T) {
	ctx := context.Background()
	a := newSponsorAdapter(t)

	created, err := a.Create(ctx, payload(t, map[string]any{"name": "Olympus", "sort_order": 2}))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = a.Create(ctx, payload(t, map[string]any{"name": "Medtronic", "sort_order": 1}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Medtronic", "Olympus"}, names(a.Rows()), "create prepends")

	rows, err := a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Medtronic", "Olympus"}, names(rows))
	assert.True(t, a.Loaded())

	found := false
	for _, r := range rows {
		if r.ID == created.ID {
			found = true
			assert.Equal(t, models.StatusPublished, r.Status)
		}
	}
	assert.True(t, found)
}

func TestAdapter_UpdateReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	a := newSponsorAdapter(t)
	first, err := a.Create(ctx, payload(t, map[string]any{"name": "Olympus", "sort_order": 1}))
	require.NoError(t, err)
	_, err = a.Create(ctx, payload(t, map[string]any{"name": "Stryker", "sort_order": 2}))
	require.NoError(t, err)
	_, err = a.List(ctx)
	require.NoError(t, err)

	updated, err := a.Update(ctx, first.ID, payload(t, map[string]any{"tier": "platinum"}))
	require.NoError(t, err)
	assert.Equal(t, "platinum", updated.Tier)

	assert.Equal(t, "Olympus", updated.Name)
	assert.Equal(t, 1, updated.SortOrder)
	assert.Equal(t, first.Status, updated.Status)
	assert.Equal(t, first.CreatedAt.Unix(), updated.CreatedAt.Unix())

	rows := a.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID, "position is kept")
	assert.Equal(t, "platinum", rows[0].Tier)
	assert.Equal(t, "Olympus", rows[0].Name, "unpatched fields are unchanged")
	assert.Equal(t, 1, rows[0].SortOrder, "unpatched fields are unchanged")
	assert.Equal(t, "Stryker", rows[1].Name)
	assert.Equal(t, 2, rows[1].SortOrder)

	rows[0].Tier = "mutated"
	assert.Equal(t, "platinum", a.Rows()[0].Tier, "Rows returns a copy")
}

func TestAdapter_RemoveDropsRow(t *testing.T) {
	ctx := context.Background()
	a := newSponsorAdapter(t)
	row, err := a.Create(ctx, payload(t, map[string]any{"name": "Olympus"}))
	require.NoError(t, err)

	require.NoError(t, a.Remove(ctx, row.ID))
	assert.Empty(t, a.Rows())

	rows, err := a.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAdapter_UpdateMissingRow(t *testing.T) {
	a := newSponsorAdapter(t)

	_, err := a.Update(context.Background(), "missing", payload(t, map[string]any{"tier": "gold"}))

	var storeErr *apperrors.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAdapter_CreateRejectsBadPayload(t *testing.T) {
	ctx := context.Background()
	a := newSponsorAdapter(t)

	tests := []struct {
		name    string
		body    map[string]any
		wantErr error
	}{
		{name: "unknown field", body: map[string]any{"name": "x", "colour": "red"}, wantErr: models.ErrUnknownField},
		{name: "store owned id", body: map[string]any{"name": "x", "id": "abc"}, wantErr: models.ErrReadOnlyField},
		{name: "fails validation", body: map[string]any{"tier": "gold"}, wantErr: models.ErrInvalidRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Create(ctx, payload(t, tt.body))
			var storeErr *apperrors.StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, a.Rows(), "failed creates leave the cache untouched")
}

// =============================================================================
// Controlled store
// =============================================================================

// stubRepo is a CollectionRepository with per-call hooks.
type stubRepo struct {
	listFunc   func(ctx context.Context, q repository.Query) ([]models.Sponsor, error)
	updateFunc func(ctx context.Context, id string, patch models.Payload) (*models.Sponsor, error)
}

func (s *stubRepo) Name() string { return "sponsors" }

func (s *stubRepo) List(ctx context.Context, q repository.Query) ([]models.Sponsor, error) {
	return s.listFunc(ctx, q)
}

func (s *stubRepo) Get(context.Context, string) (*models.Sponsor, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRepo) Insert(context.Context, *models.Sponsor) error {
	return errors.New("not implemented")
}

func (s *stubRepo) Update(ctx context.Context, id string, patch models.Payload) (*models.Sponsor, error) {
	return s.updateFunc(ctx, id, patch)
}

func (s *stubRepo) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

func (s *stubRepo) Count(context.Context, map[string]any) (int64, error) {
	return 0, errors.New("not implemented")
}

func TestAdapter_ListFailureClearsCache(t *testing.T) {
	ctx := context.Background()
	fail := false
	repo := &stubRepo{
		listFunc: func(_ context.Context, q repository.Query) ([]models.Sponsor, error) {
			assert.Equal(t, "sort_order", q.OrderBy)
			assert.True(t, q.Ascending)
			if fail {
				return nil, apperrors.NewStoreError("list", "sponsors", errors.New("relation does not exist"))
			}
			return []models.Sponsor{{Base: models.Base{ID: "s1"}, Name: "Olympus"}}, nil
		},
	}
	a := NewAdapter[models.Sponsor](repo, "sort_order", true)

	_, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, a.Rows(), 1)

	fail = true
	rows, err := a.List(ctx)
	assert.Nil(t, rows)
	assert.Error(t, err)
	assert.Empty(t, a.Rows())
	assert.Contains(t, a.Err().Error(), "relation does not exist")
	assert.False(t, a.Loaded())
	assert.False(t, a.Loading())

	fail = false
	_, err = a.List(ctx)
	require.NoError(t, err)
	assert.NoError(t, a.Err(), "a successful list clears the error")
}

func TestAdapter_LoadingWhileListInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &stubRepo{
		listFunc: func(context.Context, repository.Query) ([]models.Sponsor, error) {
			close(started)
			<-release
			return []models.Sponsor{{Base: models.Base{ID: "s1"}, Name: "Olympus"}}, nil
		},
	}
	a := NewAdapter[models.Sponsor](repo, "sort_order", true)

	done := make(chan error, 1)
	go func() {
		_, err := a.List(context.Background())
		done <- err
	}()

	<-started
	assert.True(t, a.Loading())
	assert.False(t, a.Loaded())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, a.Loading())
	assert.True(t, a.Loaded())
	assert.Equal(t, []string{"Olympus"}, names(a.Rows()))
}

func TestAdapter_ConcurrentUpdatesLastArrivalWins(t *testing.T) {
	ctx := context.Background()
	seed := models.Sponsor{Base: models.Base{ID: "s1"}, Name: "Olympus", Tier: "silver"}

	started := make(chan string, 2)
	release := map[string]chan struct{}{
		"gold":     make(chan struct{}),
		"platinum": make(chan struct{}),
	}
	repo := &stubRepo{
		listFunc: func(context.Context, repository.Query) ([]models.Sponsor, error) {
			return []models.Sponsor{seed}, nil
		},
		updateFunc: func(_ context.Context, id string, patch models.Payload) (*models.Sponsor, error) {
			row := seed
			assert.NoError(t, models.Overlay(&row, patch))
			started <- row.Tier
			<-release[row.Tier]
			return &row, nil
		},
	}
	a := NewAdapter[models.Sponsor](repo, "sort_order", true)
	_, err := a.List(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, tier := range []string{"gold", "platinum"} {
		p := payload(t, map[string]any{"tier": tier})
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Update(ctx, "s1", p)
			errs <- err
		}()
	}

	// Both calls must be in flight at once: the adapter does not serialize them.
	<-started
	<-started

	// The platinum response arrives first.
	close(release["platinum"])
	require.Eventually(t, func() bool { return a.Rows()[0].Tier == "platinum" }, time.Second, 5*time.Millisecond)
	close(release["gold"])
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, "gold", a.Rows()[0].Tier, "cache reflects the response that arrived last")
}
