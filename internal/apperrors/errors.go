// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by StoreError when a mutation matched no rows.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a principal lacks the role for an operation.
	ErrForbidden = errors.New("forbidden")
)

// AuthKind classifies an AuthError.
type AuthKind string

const (
	AuthInvalidCredentials AuthKind = "invalid_credentials"
	AuthEmailNotConfirmed  AuthKind = "email_not_confirmed"
	AuthAlreadyRegistered  AuthKind = "already_registered"
	AuthInvalidToken       AuthKind = "invalid_token"
	AuthInvalidInput       AuthKind = "invalid_input"
)

// AuthError is a sign-up, sign-in or token failure the user can act on.
type AuthError struct {
	Kind    AuthKind
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError builds an AuthError with a user-facing message.
func NewAuthError(kind AuthKind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

// IsAuthKind reports whether err is an AuthError of the given kind.
func IsAuthKind(err error, kind AuthKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}

// StoreError wraps any data-store failure. Its message passes the store's
// message through so it can be shown inline.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err unless it already is a StoreError.
func NewStoreError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// UploadError wraps a file storage failure.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ApprovalError describes why a pending or rejected account was kept out of
// the members area. It is carried by routing decisions, not returned.
type ApprovalError struct {
	Status string
}

func (e *ApprovalError) Error() string {
	return "account " + e.Status
}

// AuthorizationError describes a role too low for the admin area. It is
// carried by routing decisions, not returned.
type AuthorizationError struct {
	Role string
}

func (e *AuthorizationError) Error() string {
	if e.Role == "" {
		return "no role resolved"
	}
	return "role " + e.Role + " may not enter the admin area"
}
