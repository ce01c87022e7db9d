package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
)

// MemberService covers admin review of members and member self-service.
type MemberService struct {
	profiles repository.CollectionRepository[models.Profile]
	now      func() time.Time
}

// NewMemberService creates a MemberService.
func NewMemberService(profiles repository.CollectionRepository[models.Profile]) *MemberService {
	return &MemberService{profiles: profiles, now: time.Now}
}

// List returns profiles newest first, optionally filtered by approval status.
func (s *MemberService) List(ctx context.Context, status models.ApprovalStatus) ([]models.Profile, error) {
	q := repository.Query{OrderBy: "created_at"}
	if status != "" {
		if !status.Valid() {
			return nil, apperrors.NewStoreError("list", "profiles", fmt.Errorf("%w: unknown approval_status %q", models.ErrInvalidRow, status))
		}
		q.Eq = map[string]any{"approval_status": string(status)}
	}
	return s.profiles.List(ctx, q)
}

// Review sets a member's approval status. Staff may review.
func (s *MemberService) Review(ctx context.Context, actor *models.Profile, id string, status models.ApprovalStatus) (*models.Profile, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	if !status.Valid() {
		return nil, apperrors.NewStoreError("update", "profiles", fmt.Errorf("%w: unknown approval_status %q", models.ErrInvalidRow, status))
	}
	return s.profiles.Update(ctx, id, mustPayload(map[string]any{"approval_status": status}))
}

// ChangeRole sets a member's role. Only admins may change roles, and only
// a super admin may grant or revoke super admin.
func (s *MemberService) ChangeRole(ctx context.Context, actor *models.Profile, id string, role models.Role) (*models.Profile, error) {
	if actor == nil || !actor.Role.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if !role.Valid() {
		return nil, apperrors.NewStoreError("update", "profiles", fmt.Errorf("%w: unknown role %q", models.ErrInvalidRow, role))
	}
	target, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if (role == models.RoleSuperAdmin || target.Role == models.RoleSuperAdmin) && actor.Role != models.RoleSuperAdmin {
		return nil, apperrors.ErrForbidden
	}
	return s.profiles.Update(ctx, id, mustPayload(map[string]any{"role": role}))
}

// UpdateOwn applies a self-service patch to the caller's profile. Fields
// outside the self-service set are rejected.
func (s *MemberService) UpdateOwn(ctx context.Context, userID string, patch models.Payload) (*models.Profile, error) {
	for key := range patch {
		if !slices.Contains(models.SelfServiceFields, key) {
			return nil, apperrors.NewStoreError("update", "profiles", fmt.Errorf("%w: %s", models.ErrReadOnlyField, key))
		}
	}
	if err := validateSelfService(patch); err != nil {
		return nil, apperrors.NewStoreError("update", "profiles", err)
	}
	return s.profiles.Update(ctx, userID, patch)
}

func validateSelfService(patch models.Payload) error {
	check := func(key string, valid func(string) bool) error {
		raw, ok := patch[key]
		if !ok {
			return nil
		}
		var v *string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: %s: %v", models.ErrInvalidRow, key, err)
		}
		if v != nil && !valid(*v) {
			return fmt.Errorf("%w: unknown %s %q", models.ErrInvalidRow, key, *v)
		}
		return nil
	}
	if err := check("training_stage", models.ValidTrainingStage); err != nil {
		return err
	}
	return check("region", models.ValidRegion)
}

// UpdatePrivacy replaces the caller's directory settings.
func (s *MemberService) UpdatePrivacy(ctx context.Context, userID string, settings models.DirectorySettings) (*models.Profile, error) {
	return s.profiles.Update(ctx, userID, mustPayload(map[string]any{"directory_settings": settings}))
}

// RequestDeletion records that the caller asked for their account to be
// deleted. An admin completes the deletion.
func (s *MemberService) RequestDeletion(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profiles.Update(ctx, userID, mustPayload(map[string]any{"deletion_requested_at": s.now().UTC()}))
}

// Directory lists approved members who opted into the directory, with
// hidden fields blanked.
func (s *MemberService) Directory(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.profiles.List(ctx, repository.Query{
		OrderBy:   "full_name",
		Ascending: true,
		Eq: map[string]any{
			"approval_status":      string(models.ApprovalApproved),
			"is_directory_visible": true,
		},
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		p := &rows[i]
		ds := p.DirectorySettings
		if !ds.ShowEmail {
			p.Email = ""
		}
		if !ds.ShowHospital {
			p.Hospital = nil
		}
		if !ds.ShowRegion {
			p.Region = nil
		}
		if !ds.ShowTrainingStage {
			p.TrainingStage = nil
		}
		p.AcpgbiNumber = nil
		p.DeletionRequestedAt = nil
	}
	return rows, nil
}

// mustPayload encodes values that are always representable as JSON.
func mustPayload(v map[string]any) models.Payload {
	p, err := models.PayloadOf(v)
	if err != nil {
		panic(err)
	}
	return p
}
