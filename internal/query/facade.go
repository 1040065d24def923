package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/moodlog/internal/domain"
)

// AbsentEmotion is shown in place of a missing emotion label
const AbsentEmotion = "None"

// NoNote is shown in place of a missing or empty note
const NoNote = "No note"

// RecentFetcher is the part of the store the façade reads from
type RecentFetcher interface {
	FetchRecent(ctx context.Context, userID string, limit int) ([]domain.MoodEntry, error)
}

// Facade is the read path used by the CLI, the API and the assistant
type Facade struct {
	store RecentFetcher
}

// New creates a Facade over the given store
func New(store RecentFetcher) *Facade {
	return &Facade{store: store}
}

// DescribeRecent returns a user's latest entries with a text rendering.
// A user with no entries yields a Failure; storage errors are returned as err.
func (f *Facade) DescribeRecent(ctx context.Context, userID string, limit int) (Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Failure{Message: "A user id is required.", Err: domain.ErrEmptyUser}, nil
	}

	entries, err := f.store.FetchRecent(ctx, userID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyUser) {
			return Failure{Message: "A user id is required.", Err: err}, nil
		}
		return nil, fmt.Errorf("describe recent: %w", err)
	}

	if len(entries) == 0 {
		return Failure{
			Message: fmt.Sprintf("No entries found for user %s.", userID),
			Err:     domain.ErrNoEntries,
		}, nil
	}

	return Success{Entries: entries, Formatted: Format(entries)}, nil
}

// Format renders one line per entry
func Format(entries []domain.MoodEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = FormatEntry(e)
	}
	return strings.Join(lines, "\n")
}

// FormatEntry renders "[createdAt] Mood m | Emotion e | Note: n"
func FormatEntry(e domain.MoodEntry) string {
	emotion := AbsentEmotion
	if e.Emotion != nil && *e.Emotion != "" {
		emotion = *e.Emotion
	}
	note := NoNote
	if e.Note != nil && *e.Note != "" {
		note = *e.Note
	}
	return fmt.Sprintf("[%s] Mood %d | Emotion %s | Note: %s", e.CreatedAt, e.Mood, emotion, note)
}
