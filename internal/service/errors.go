package service

import (
	"errors"
	"fmt"

	"alcyxob/gym-manager/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidationError is a user-correctable input problem tied to a field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError denies an operation with a human-readable reason.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

func newForbiddenError(format string, args ...interface{}) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

// StateError reports an operation that is not allowed in the current state.
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// --- Error Definitions ---
var (
	ErrClientNotFound        = &NotFoundError{Resource: "client"}
	ErrPlanNotFound          = &NotFoundError{Resource: "plan"}
	ErrSubscriptionNotFound  = &NotFoundError{Resource: "subscription"}
	ErrSessionNotFound       = &NotFoundError{Resource: "session"}
	ErrTrainingPlanNotFound  = &NotFoundError{Resource: "training plan"}
	ErrTransferNotFound      = &NotFoundError{Resource: "transfer request"}
	ErrUserNotFound          = &NotFoundError{Resource: "user"}
	ErrGroupSessionNotFound  = &NotFoundError{Resource: "group session"}
	ErrScheduleEntryNotFound = &NotFoundError{Resource: "schedule entry"}
	ErrTemplateNotFound      = &NotFoundError{Resource: "group template"}

	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrTooManyAttempts      = errors.New("too many login attempts, try again later")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// Actor is the authenticated staff member performing an operation.
type Actor struct {
	ID   primitive.ObjectID
	Role domain.Role
}

func (a Actor) IsAdmin() bool     { return a.Role == domain.RoleAdmin }
func (a Actor) IsTrainer() bool   { return a.Role == domain.RoleTrainer }
func (a Actor) IsFrontDesk() bool { return a.Role == domain.RoleFrontDesk }
