package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
	"github.com/JAFletch-surg/dukes-club/internal/session"
)

// SessionLoader resolves the identity and profile behind an access token.
type SessionLoader struct {
	auth     AuthService
	profiles repository.CollectionRepository[models.Profile]
}

// NewSessionLoader creates a SessionLoader.
func NewSessionLoader(auth AuthService, profiles repository.CollectionRepository[models.Profile]) *SessionLoader {
	return &SessionLoader{auth: auth, profiles: profiles}
}

// Load never fails. An abandoned lookup yields a Loading session with no
// profile; any other profile lookup failure yields a Ready session whose
// Profile is nil.
func (l *SessionLoader) Load(ctx context.Context, accessToken string) session.Session {
	if accessToken == "" {
		return session.Session{State: session.Anonymous}
	}
	identity, err := l.auth.CurrentIdentity(ctx, accessToken)
	if err != nil {
		return session.Session{State: session.Anonymous}
	}

	profile, err := l.profiles.Get(ctx, identity.ID)
	switch {
	case err == nil:
		return session.Session{State: session.Ready, Identity: identity, Profile: profile}
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return session.Session{State: session.Loading, Identity: identity}
	default:
		slog.WarnContext(ctx, "Profile lookup failed", "user_id", identity.ID, "error", err)
		return session.Session{State: session.Ready, Identity: identity}
	}
}
