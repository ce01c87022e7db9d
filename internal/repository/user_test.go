package repository

import (
	"context"
	"testing"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/database"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_CreateWithProfile(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	repo := NewUserRepository(db)

	user := &models.User{Email: "jane@nhs.net", PasswordHash: "hash"}
	profile := &models.Profile{FullName: "Jane Doe", Email: "jane@nhs.net", ApprovalStatus: models.ApprovalApproved}
	require.NoError(t, repo.CreateWithProfile(ctx, user, profile))

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, user.ID, profile.ID)

	profiles := NewCollectionRepository[models.Profile](db)
	stored, err := profiles.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTrainee, stored.Role)
	assert.Equal(t, models.ApprovalApproved, stored.ApprovalStatus)

	found, err := repo.FindByEmail(ctx, "jane@nhs.net")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.False(t, found.Confirmed())
}

func TestUserRepository_DuplicateEmailRollsBack(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	repo := NewUserRepository(db)

	require.NoError(t, repo.CreateWithProfile(ctx, &models.User{Email: "jane@nhs.net", PasswordHash: "h"}, &models.Profile{}))

	err := repo.CreateWithProfile(ctx, &models.User{Email: "jane@nhs.net", PasswordHash: "h"}, &models.Profile{})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
}

func TestUserRepository_ConfirmAndPassword(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(database.NewTestDB(t))

	user := &models.User{Email: "sam@ucl.ac.uk", PasswordHash: "old"}
	require.NoError(t, repo.CreateWithProfile(ctx, user, &models.Profile{}))

	require.NoError(t, repo.ConfirmEmail(ctx, user.ID, time.Now()))
	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new"))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found.Confirmed())
	assert.Equal(t, "new", found.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), apperrors.ErrNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@nhs.net")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
