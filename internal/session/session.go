// Package session carries the resolved identity and profile of a request.
package session

import (
	"context"

	"github.com/JAFletch-surg/dukes-club/internal/models"
)

// State describes how far session resolution got.
type State int

const (
	// Anonymous means no valid access token was presented.
	Anonymous State = iota
	// Loading means resolution was abandoned before it finished.
	Loading
	// Ready means the identity is known. Profile may still be nil when it
	// could not be looked up.
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "anonymous"
	}
}

// Session is the per-request view of who is signed in.
type Session struct {
	State    State
	Identity *models.Identity
	Profile  *models.Profile
}

// Authenticated reports whether an identity was resolved.
func (s Session) Authenticated() bool {
	return s.State == Ready && s.Identity != nil
}

// Flags is the role ladder exposed to clients. Each rung implies the ones
// below it.
type Flags struct {
	IsAdmin   bool `json:"isAdmin"`
	IsEditor  bool `json:"isEditor"`
	IsMember  bool `json:"isMember"`
	IsTrainee bool `json:"isTrainee"`
	IsPending bool `json:"isPending"`
}

// Flags derives the role ladder from the session's profile.
func (s Session) Flags() Flags {
	if s.Profile == nil {
		return Flags{}
	}
	role := s.Profile.Role
	f := Flags{IsAdmin: role.IsAdmin()}
	f.IsEditor = role == models.RoleEditor || f.IsAdmin
	f.IsMember = role == models.RoleMember || f.IsEditor
	f.IsTrainee = role == models.RoleTrainee || f.IsMember
	f.IsPending = s.Profile.ApprovalStatus == models.ApprovalPending
	return f
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or an anonymous session.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(contextKey{}).(Session); ok {
		return s
	}
	return Session{State: Anonymous}
}
