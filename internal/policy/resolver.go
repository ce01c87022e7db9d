package policy

import (
	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
)

// Outcome is what a navigation resolves to.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
)

func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the result of resolving one navigation. Reason is set when the
// redirect stems from an approval or role check.
type Decision struct {
	Outcome  Outcome `json:"-"`
	Location string  `json:"location,omitempty"`
	Reason   error   `json:"-"`
}

// Allowed reports whether the navigation may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

func redirectTo(location string, reason error) Decision {
	return Decision{Outcome: Redirect, Location: location, Reason: reason}
}

// Resolve applies the navigation decision table to path. identity is nil for
// anonymous requests; profile is nil when it could not be resolved, which is
// treated as the most restrictive state. Resolve is pure.
func Resolve(path string, identity *models.Identity, profile *models.Profile) Decision {
	class := Classify(path)

	if identity == nil {
		if class == RouteMembers || class == RouteAdmin {
			return redirectTo(LoginURL(path), nil)
		}
		return Decision{Outcome: Allow}
	}

	switch class {
	case RouteAdmin:
		if profile == nil || !profile.Role.IsStaff() {
			return redirectTo(PathMembers, &apperrors.AuthorizationError{Role: roleOf(profile)})
		}
	case RouteMembers:
		switch {
		case profile == nil || profile.ApprovalStatus == models.ApprovalPending:
			return redirectTo(PathPendingApproval, &apperrors.ApprovalError{Status: string(models.ApprovalPending)})
		case profile.ApprovalStatus == models.ApprovalRejected:
			return redirectTo(PathLogin, &apperrors.ApprovalError{Status: string(models.ApprovalRejected)})
		}
	case RouteAuth:
		return redirectTo(PathMembers, nil)
	}
	return Decision{Outcome: Allow}
}

// Landing returns where a principal goes right after a successful sign-in.
// The requested redirect is honoured only when it is local and inside the
// area the principal's role lands in.
func Landing(profile *models.Profile, redirect string) string {
	if profile == nil || profile.ApprovalStatus == models.ApprovalPending {
		return PathPendingApproval
	}
	target := LocalPath(redirect)
	if profile.Role.IsStaff() {
		if target != "" && Classify(target) == RouteAdmin {
			return target
		}
		return PathAdmin
	}
	if target != "" && Classify(target) == RouteMembers {
		return target
	}
	return PathMembers
}

func roleOf(profile *models.Profile) string {
	if profile == nil {
		return ""
	}
	return string(profile.Role)
}
