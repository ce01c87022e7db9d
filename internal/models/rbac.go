package models

// Role is a member's permission tier, lowest first.
type Role string

const (
	RoleTrainee    Role = "trainee"
	RoleMember     Role = "member"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleTrainee:    1,
	RoleMember:     2,
	RoleEditor:     3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above other. Unknown roles rank below everything.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] > 0 && roleRank[r] >= roleRank[other]
}

// IsStaff reports whether r may enter the admin area.
func (r Role) IsStaff() bool {
	return r.AtLeast(RoleEditor)
}

// IsAdmin reports whether r may manage members.
func (r Role) IsAdmin() bool {
	return r.AtLeast(RoleAdmin)
}

// ApprovalStatus gates access to the members area.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Status is the publication lifecycle shared by most content collections.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}
