package domain

import (
	"errors"
	"fmt"
)

// Mood bounds, inclusive
const (
	MinMood = 1
	MaxMood = 10
)

// DefaultRecentLimit is the number of entries returned when a caller does not ask for a count
const DefaultRecentLimit = 7

// TimestampLayout renders CreatedAt, e.g. "Oct 18, 2026 03:04 PM"
const TimestampLayout = "Jan 02, 2006 03:04 PM"

var (
	ErrInvalidMood = errors.New("mood must be between 1 and 10")
	ErrEmptyUser   = errors.New("user id is required")
	ErrNoEntries   = errors.New("no entries found")
)

// MoodEntry is one journal record of a user
type MoodEntry struct {
	GlobalID    string  `json:"-" db:"id"`
	UserID      string  `json:"user_id" db:"user_id"`
	UserEntryID int     `json:"user_entry_id" db:"user_entry_id"`
	Mood        int     `json:"mood" db:"mood"`
	Emotion     *string `json:"emotion" db:"emotion"`
	Note        *string `json:"note" db:"note"`
	CreatedAt   string  `json:"created_at" db:"created_at"`
}

// ValidateMood returns ErrInvalidMood when mood is outside [MinMood, MaxMood]
func ValidateMood(mood int) error {
	if mood < MinMood || mood > MaxMood {
		return fmt.Errorf("%w: got %d", ErrInvalidMood, mood)
	}
	return nil
}

// Optional returns nil for an empty string, a pointer to s otherwise
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
