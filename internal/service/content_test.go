package service

import (
	"context"
	"testing"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/database"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFaculty_Set(t *testing.T) {
	db := database.NewTestDB(t)
	ctx := context.Background()
	events := repository.NewCollectionRepository[models.Event](db)
	faculty := repository.NewCollectionRepository[models.Faculty](db)
	svc := NewEventFacultyService(events, faculty, repository.NewEventFacultyRepository(db))

	event := models.Event{Title: "Hernia Day", StartsAt: time.Now()}
	require.NoError(t, events.Insert(ctx, &event))
	ann, bob := models.Faculty{FullName: "Ann"}, models.Faculty{FullName: "Bob"}
	require.NoError(t, faculty.Insert(ctx, &ann))
	require.NoError(t, faculty.Insert(ctx, &bob))

	rows, err := svc.Set(ctx, event.ID, []FacultyLink{
		{FacultyID: ann.ID, Role: strPtr("Chair")},
		{FacultyID: bob.ID},
		{FacultyID: ann.ID, Role: strPtr("Speaker")},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Chair", *rows[0].Role)

	stored, err := svc.List(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	t.Run("unknown faculty leaves links untouched", func(t *testing.T) {
		_, err := svc.Set(ctx, event.ID, []FacultyLink{{FacultyID: "ghost"}})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		stored, err := svc.List(ctx, event.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.Set(ctx, "missing", []FacultyLink{{FacultyID: ann.ID}})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("empty set clears", func(t *testing.T) {
		_, err := svc.Set(ctx, event.ID, nil)
		require.NoError(t, err)

		stored, err := svc.List(ctx, event.ID)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})
}

func TestFlags_ReportAndResolve(t *testing.T) {
	db := database.NewTestDB(t)
	ctx := context.Background()
	questions := repository.NewCollectionRepository[models.Question](db)
	svc := NewFlagService(repository.NewCollectionRepository[models.QuestionFlag](db), questions)
	resolvedAt := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	svc.now = func() time.Time { return resolvedAt }

	q := models.Question{QuestionText: "First-line imaging for suspected rectal cancer staging?", Options: []string{"MRI", "CT"}}
	require.NoError(t, questions.Insert(ctx, &q))

	_, err := svc.Report(ctx, "user-1", "missing", "typo")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	flag, err := svc.Report(ctx, "user-1", q.ID, "Answer B is also defensible")
	require.NoError(t, err)
	assert.Equal(t, models.FlagOpen, flag.Status)

	open, err := svc.Open(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)

	resolved, err := svc.Resolve(ctx, flag.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FlagResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, resolved.ResolvedAt.Equal(resolvedAt))

	open, err = svc.Open(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier()
	var a, b int
	unsubA := n.Subscribe(func(context.Context, IdentityEvent) { a++ })
	n.Subscribe(func(context.Context, IdentityEvent) { b++ })

	n.Publish(context.Background(), IdentityEvent{Kind: EventSignedIn})
	unsubA()
	unsubA()
	n.Publish(context.Background(), IdentityEvent{Kind: EventSignedOut})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}
