// Package models contains data models for the Dukes' Club service.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an identity issued by the identity provider. The ID is opaque to
// the rest of the application and keys the member's Profile.
type User struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email            string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash     string     `json:"-" gorm:"not null"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Confirmed reports whether the email address has been verified.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
