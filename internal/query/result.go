package query

import (
	"encoding/json"
	"fmt"

	"github.com/pbaille/moodlog/internal/domain"
)

// Result statuses as they appear on the wire
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is either a Success or a Failure
type Result interface {
	Status() string
	isResult()
}

// Success carries a user's recent entries, oldest first, and their rendering
type Success struct {
	Entries   []domain.MoodEntry
	Formatted string
}

// Failure is a reportable condition such as a user with no entries
type Failure struct {
	Message string
	Err     error
}

// Status returns StatusSuccess
func (Success) Status() string { return StatusSuccess }

// Status returns StatusError
func (Failure) Status() string { return StatusError }

func (Success) isResult() {}
func (Failure) isResult() {}

// MarshalJSON encodes {status, entries, formatted}
func (s Success) MarshalJSON() ([]byte, error) {
	entries := s.Entries
	if entries == nil {
		entries = []domain.MoodEntry{}
	}
	return json.Marshal(struct {
		Status    string             `json:"status"`
		Entries   []domain.MoodEntry `json:"entries"`
		Formatted string             `json:"formatted"`
	}{StatusSuccess, entries, s.Formatted})
}

// MarshalJSON encodes {status, error_message}
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}{StatusError, f.Message})
}

// Error returns the message
func (f Failure) Error() string { return f.Message }

// Unwrap returns the sentinel behind the failure, if any
func (f Failure) Unwrap() error { return f.Err }

// ToMap renders r in its wire shape as a generic map, for tool-calling
// interfaces that take untyped payloads.
func ToMap(r Result) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return m, nil
}
