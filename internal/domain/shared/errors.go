// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")
	ErrOnCooldown       = errors.New("action is on cooldown")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "pet", "study", "economy"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Pet domain errors
var (
	ErrPetNotFound      = NewDomainError("pet", "Find", ErrNotFound, "pet not found")
	ErrPetAlreadyExists = NewDomainError("pet", "Create", ErrAlreadyExists, "user already has a live pet")
	ErrPetDead          = NewDomainError("pet", "CheckState", ErrInvalidState, "pet is dead")
	ErrPetNotDead       = NewDomainError("pet", "Revive", ErrInvalidState, "pet is not dead")
	ErrPenaltyActive    = NewDomainError("pet", "Replace", ErrInvalidState, "death penalty window has not elapsed")
	ErrInvalidPetName   = NewDomainError("pet", "Validate", ErrInvalidInput, "invalid pet name")
	ErrNoFoodInStock    = NewDomainError("pet", "Feed", ErrInvalidState, "food not in inventory")
)

// Study domain errors
var (
	ErrStudyLogNotFound = NewDomainError("study", "Find", ErrNotFound, "study log not found")
	ErrNoteTooLong      = NewDomainError("study", "Validate", ErrValueOutOfRange, "note exceeds maximum length")
	ErrEmptyNote        = NewDomainError("study", "Validate", ErrEmptyValue, "note content is empty")
	ErrStudyOnCooldown  = NewDomainError("study", "Record", ErrOnCooldown, "study cooldown has not elapsed")
)

// Exam domain errors
var (
	ErrExamNotFound    = NewDomainError("exam", "Find", ErrNotFound, "exam not found")
	ErrExamInactive    = NewDomainError("exam", "Take", ErrInvalidState, "exam is not active")
	ErrInvalidQuestion = NewDomainError("exam", "Validate", ErrEmptyValue, "question and model answer are required")
)

// Economy domain errors
var (
	ErrUnknownFood        = NewDomainError("economy", "Validate", ErrInvalidID, "unknown food ID")
	ErrUnknownPackage     = NewDomainError("economy", "Validate", ErrInvalidID, "unknown point package")
	ErrUnknownShopItem    = NewDomainError("economy", "Validate", ErrInvalidID, "unknown shop item")
	ErrInsufficientPoints = NewDomainError("economy", "Purchase", ErrInvalidState, "not enough points")
	ErrInsufficientGems   = NewDomainError("economy", "Purchase", ErrInvalidState, "not enough gems")
	ErrOrderNotFound      = NewDomainError("economy", "FindOrder", ErrNotFound, "payment order not found")
	ErrOrderAlreadyDone   = NewDomainError("economy", "Confirm", ErrAlreadyProcessed, "payment already confirmed")
	ErrAmountMismatch     = NewDomainError("economy", "Confirm", ErrInvalidInput, "confirmed amount does not match any package")
	ErrOrderOwnerMismatch = NewDomainError("economy", "Confirm", ErrForbidden, "order belongs to another user")
	ErrNoRevivePotion     = NewDomainError("economy", "UseItem", ErrInvalidState, "no revive potion in inventory")
	ErrNoCheatSheet       = NewDomainError("economy", "UseItem", ErrInvalidState, "no cheat sheet in inventory")
)

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidEmail      = NewDomainError("user", "Validate", ErrInvalidFormat, "invalid email")
	ErrInvalidRole       = NewDomainError("user", "Validate", ErrInvalidInput, "invalid role")
	ErrWeakPassword      = NewDomainError("user", "Validate", ErrInvalidInput, "password too short")
)

// Classroom domain errors
var (
	ErrClassroomNotFound = NewDomainError("classroom", "Find", ErrNotFound, "classroom not found")
	ErrInvalidJoinCode   = NewDomainError("classroom", "Join", ErrInvalidInput, "invalid join code")
	ErrAlreadyMember     = NewDomainError("classroom", "Join", ErrAlreadyExists, "already a classroom member")
	ErrNotTeacher        = NewDomainError("classroom", "Create", ErrForbidden, "only teachers can create classrooms")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidRank         = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
	ErrSnapshotNotFound    = NewDomainError("leaderboard", "FindSnapshot", ErrNotFound, "snapshot not found")
	ErrLeaderboardStale    = NewDomainError("leaderboard", "Refresh", ErrExpired, "leaderboard data is stale")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrNotificationFailed   = NewDomainError("notification", "Send", ErrExternalService, "failed to send notification")
	ErrInvalidChannel       = NewDomainError("notification", "Validate", ErrInvalidInput, "invalid notification channel")
	ErrNotificationDisabled = NewDomainError("notification", "Check", ErrForbidden, "notifications disabled by user")
	ErrTooManyNotifications = NewDomainError("notification", "Send", ErrRateLimited, "too many notifications")
)

// External service errors
var (
	ErrGeminiUnavailable     = NewDomainError("gemini", "Request", ErrServiceUnavailable, "Gemini API is unavailable")
	ErrGeminiRateLimited     = NewDomainError("gemini", "Request", ErrRateLimited, "Gemini API rate limit exceeded")
	ErrGeminiTimeout         = NewDomainError("gemini", "Request", ErrTimeout, "Gemini API request timeout")
	ErrGeminiInvalidResponse = NewDomainError("gemini", "Parse", ErrInvalidFormat, "invalid response from Gemini API")
	ErrTossConfirmFailed     = NewDomainError("toss", "Confirm", ErrExternalService, "Toss payment confirmation failed")
	ErrTelegramAPIFailed     = NewDomainError("telegram", "Send", ErrExternalService, "Telegram API request failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsCooldown checks if the error is a cooldown gate rejection.
func IsCooldown(err error) bool {
	return errors.Is(err, ErrOnCooldown)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
