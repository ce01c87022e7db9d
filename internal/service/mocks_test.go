package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Mock UserRepository
// =============================================================================

type mockUserRepository struct {
	findByEmailFunc       func(ctx context.Context, email string) (*models.User, error)
	findByIDFunc          func(ctx context.Context, id string) (*models.User, error)
	createWithProfileFunc func(ctx context.Context, user *models.User, profile *models.Profile) error
	confirmEmailFunc      func(ctx context.Context, id string, at time.Time) error
	updatePasswordFunc    func(ctx context.Context, id, passwordHash string) error
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	if m.createWithProfileFunc != nil {
		return m.createWithProfileFunc(ctx, user, profile)
	}
	return errors.New("not implemented")
}

func (m *mockUserRepository) ConfirmEmail(ctx context.Context, id string, at time.Time) error {
	if m.confirmEmailFunc != nil {
		return m.confirmEmailFunc(ctx, id, at)
	}
	return errors.New("not implemented")
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.updatePasswordFunc != nil {
		return m.updatePasswordFunc(ctx, id, passwordHash)
	}
	return errors.New("not implemented")
}

// =============================================================================
// Mock profile collection
// =============================================================================

type mockProfileRepository struct {
	getFunc    func(ctx context.Context, id string) (*models.Profile, error)
	listFunc   func(ctx context.Context, q repository.Query) ([]models.Profile, error)
	updateFunc func(ctx context.Context, id string, patch models.Payload) (*models.Profile, error)
}

func (m *mockProfileRepository) Name() string { return "profiles" }

func (m *mockProfileRepository) List(ctx context.Context, q repository.Query) ([]models.Profile, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProfileRepository) Insert(context.Context, *models.Profile) error {
	return errors.New("not implemented")
}

func (m *mockProfileRepository) Update(ctx context.Context, id string, patch models.Payload) (*models.Profile, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProfileRepository) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

func (m *mockProfileRepository) Count(context.Context, map[string]any) (int64, error) {
	return 0, errors.New("not implemented")
}

// =============================================================================
// Recording mailer
// =============================================================================

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return string(hash)
}

func confirmedUser(t *testing.T, id, email, password string) *models.User {
	t.Helper()
	now := time.Now()
	return &models.User{ID: id, Email: email, PasswordHash: hashPassword(t, password), EmailConfirmedAt: &now}
}

func approvedProfile(id string, role models.Role) *models.Profile {
	return &models.Profile{Base: models.Base{ID: id}, Role: role, ApprovalStatus: models.ApprovalApproved}
}
