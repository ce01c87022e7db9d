// Package policy holds the pure access rules: route classification, the
// per-navigation decision table, post-login landing and the registration
// approval policy.
package policy

import (
	"strings"

	"github.com/JAFletch-surg/dukes-club/internal/models"
)

// ApprovalPolicy decides whether a new registration is approved on sign-up.
// The same value is used by the registration preview and by the sign-up
// authority that persists approval_status, so the two cannot disagree.
type ApprovalPolicy struct {
	domains  map[string]bool
	suffixes []string
}

// NewApprovalPolicy builds a policy from an exact-domain allow-list and a
// suffix allow-list. Entries are compared case-insensitively.
func NewApprovalPolicy(domains, suffixes []string) ApprovalPolicy {
	p := ApprovalPolicy{domains: make(map[string]bool, len(domains))}
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			p.domains[d] = true
		}
	}
	for _, s := range suffixes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			p.suffixes = append(p.suffixes, s)
		}
	}
	return p
}

// Classification is the outcome of applying the policy to an email.
type Classification struct {
	Status models.ApprovalStatus `json:"approval_status"`
	Role   models.Role           `json:"role"`
}

// AutoApproved reports whether the registration skips manual review.
func (c Classification) AutoApproved() bool {
	return c.Status == models.ApprovalApproved
}

// Classify returns the initial approval status and role for email.
func (p ApprovalPolicy) Classify(email string) Classification {
	if p.allowed(emailDomain(email)) {
		return Classification{Status: models.ApprovalApproved, Role: models.RoleTrainee}
	}
	return Classification{Status: models.ApprovalPending, Role: models.RoleTrainee}
}

func (p ApprovalPolicy) allowed(domain string) bool {
	if domain == "" {
		return false
	}
	if p.domains[domain] {
		return true
	}
	for _, s := range p.suffixes {
		if strings.HasSuffix(domain, s) {
			return true
		}
	}
	return false
}

// emailDomain returns the lower-cased part after the last '@'.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}
