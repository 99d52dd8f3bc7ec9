// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier (UUID in string form).
type UserID string

// IsValid checks that the user ID is non-empty.
func (u UserID) IsValid() bool {
	return len(u) > 0
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "user ID is empty")
	}
	return UserID(id), nil
}

// PetID represents a unique pet identifier (UUID in string form).
type PetID string

// IsValid checks that the pet ID is non-empty.
func (p PetID) IsValid() bool {
	return len(p) > 0
}

// String returns the string representation.
func (p PetID) String() string {
	return string(p)
}

// NewPetID creates a new PetID with validation.
func NewPetID(id string) (PetID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", NewDomainError("shared", "NewPetID", ErrInvalidID, "pet ID is empty")
	}
	return PetID(id), nil
}

// GameID identifies a minigame for per-pet cooldown tracking.
type GameID string

// Known minigames.
const (
	GameMultiplicationPuzzle GameID = "multiplication"
)

// IsValid checks if the game ID is a known minigame.
func (g GameID) IsValid() bool {
	switch g {
	case GameMultiplicationPuzzle:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (g GameID) String() string {
	return string(g)
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a user email address.
type Email string

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValid checks if the email format is valid.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// LocalPart returns the part before the '@'.
// Used as a default display name for new accounts.
func (e Email) LocalPart() string {
	parts := strings.SplitN(string(e), "@", 2)
	return parts[0]
}

// NewEmail creates a new Email with validation.
func NewEmail(value string) (Email, error) {
	e := Email(strings.ToLower(strings.TrimSpace(value)))
	if !e.IsValid() {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a pet's position in a leaderboard.
// Rank starts at 1 (first place).
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the pet is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// Medal returns a medal emoji for top ranks.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// Compare returns the difference between two ranks.
// Positive value means improvement (moved up), negative means dropped.
func (r Rank) Compare(other Rank) int {
	return int(other) - int(r)
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// JoinCode Value Object
// ═══════════════════════════════════════════════════════════════════════════

// JoinCode represents a classroom invitation code.
// Format: 6 uppercase alphanumeric characters (e.g., "A3F9KQ").
type JoinCode string

var joinCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// IsValid checks if the join code format is valid.
func (c JoinCode) IsValid() bool {
	return joinCodeRegex.MatchString(string(c))
}

// String returns the string representation.
func (c JoinCode) String() string {
	return string(c)
}

// NewJoinCode creates a new JoinCode with validation.
func NewJoinCode(value string) (JoinCode, error) {
	c := JoinCode(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", ErrInvalidJoinCode
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// OrderID Value Object
// ═══════════════════════════════════════════════════════════════════════════

// OrderID represents a payment order identifier.
// Format: "order_<unix-millis>_<random-suffix>", matching the web client.
type OrderID string

var orderIDRegex = regexp.MustCompile(`^order_\d+_[a-z0-9]{8}$`)

// IsValid checks if the order ID format is valid.
func (o OrderID) IsValid() bool {
	return orderIDRegex.MatchString(string(o))
}

// String returns the string representation.
func (o OrderID) String() string {
	return string(o)
}

// NewOrderID builds an order ID from its parts.
func NewOrderID(unixMillis int64, suffix string) OrderID {
	return OrderID(fmt.Sprintf("order_%d_%s", unixMillis, suffix))
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(at time.Time) bool {
	return !at.Before(t.From) && !at.After(t.To)
}
