package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action types recorded in the action log.
const (
	ActionLoginSuccess  = "login_success"
	ActionLoginFailure  = "login_failure"
	ActionLogout        = "logout"
	ActionTokenRefresh  = "token_refresh"
	ActionRegister      = "register"
	ActionRowCreate     = "row_create"
	ActionRowUpdate     = "row_update"
	ActionRowDelete     = "row_delete"
	ActionMemberReview  = "member_review"
	ActionUpload        = "upload"
	ActionFlagResolve   = "flag_resolve"
	ActionDeleteRequest = "account_deletion_request"
)

// ActionLog is an audit record of an authentication event or admin mutation.
type ActionLog struct {
	ID           string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ActionType   string            `json:"action_type" gorm:"index;not null"`
	UserID       *string           `json:"user_id" gorm:"type:varchar(36);index"`
	ResourceType *string           `json:"resource_type"`
	ResourceID   *string           `json:"resource_id"`
	IPAddress    *string           `json:"ip_address"`
	UserAgent    *string           `json:"user_agent"`
	Details      map[string]string `json:"details" gorm:"type:text;serializer:json"`
	CreatedAt    time.Time         `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for the ActionLog model.
func (ActionLog) TableName() string { return "action_logs" }

// BeforeCreate assigns a UUID when the caller did not provide one.
func (l *ActionLog) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
