package console

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbaille/moodlog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct{ label string }

func (s stubClassifier) Classify(context.Context, string) (string, error) { return s.label, nil }

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "moods.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestJournalRecordsEntries(t *testing.T) {
	s := newStore(t)
	var out bytes.Buffer

	in := script(
		"", "alice",
		"abc", "0", "7", "Happy", "good day", "y",
		"3", "ExhaustedAndSad", "tired", "n",
	)
	require.NoError(t, New(s, nil, in, &out, nil).Journal(context.Background()))

	text := out.String()
	assert.Contains(t, text, "User ID cannot be empty.")
	assert.Contains(t, text, "Please enter a valid number.")
	assert.Contains(t, text, "Mood must be between 1 and 10.")
	assert.Contains(t, text, "Entry #1 saved.")
	assert.Contains(t, text, "Entry #2 saved.")
	assert.Contains(t, text, "=== All Entries (by user & time) ===")
	assert.Contains(t, text, "(Entry #2 for alice)")

	entries, err := s.FetchRecent(context.Background(), "alice", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ExhaustedA", *entries[1].Emotion)
}

func TestJournalBlankAnswersAreAbsent(t *testing.T) {
	s := newStore(t)
	var out bytes.Buffer

	require.NoError(t, New(s, nil, script("bob", "5", "", "", "n"), &out, nil).Journal(context.Background()))
	assert.Contains(t, out.String(), "Emotion: None, Note: None")

	entries, err := s.FetchRecent(context.Background(), "bob", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Emotion)
	assert.Nil(t, entries[0].Note)
}

func TestJournalUsesClassifier(t *testing.T) {
	s := newStore(t)
	var out bytes.Buffer

	c := New(s, stubClassifier{label: "Sad"}, script("bob", "2", "", "rough week", "n"), &out, nil)
	require.NoError(t, c.Journal(context.Background()))
	assert.Contains(t, out.String(), "Detected emotion: Sad")

	entries, err := s.FetchRecent(context.Background(), "bob", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Sad", *entries[0].Emotion)
}

func TestJournalEndOfInput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, New(newStore(t), nil, script("alice", "4"), &out, nil).Journal(context.Background()))
	assert.Contains(t, out.String(), "No entries found.")
}

func TestReviewDeleteAndQuit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, m := range []int{7, 3, 9} {
		_, err := s.Append(ctx, "alice", m, nil, nil)
		require.NoError(t, err)
	}
	var out bytes.Buffer

	in := script(
		"alice", "-1", "x", "5",
		"1", "1",
		"1", "42",
		"1", "one",
		"3", "1",
		"9",
		"2",
		"4",
	)
	require.NoError(t, New(s, nil, in, &out, nil).Review(ctx))

	text := out.String()
	assert.Contains(t, text, "Please enter a positive number.")
	assert.Contains(t, text, "Please enter a valid integer.")
	assert.Contains(t, text, "=== Last 3 entries for alice ===")
	assert.Contains(t, text, "Entry #1 deleted for user alice.")
	assert.Contains(t, text, "No entry #42 found for alice.")
	assert.Contains(t, text, "Invalid ID. Must be a number.")
	assert.Contains(t, text, "=== Last 1 entries for alice ===")
	assert.Contains(t, text, "Invalid option. Please choose 1-4.")
	assert.Contains(t, text, "Goodbye!")

	entries, err := s.FetchRecent(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Mood)
	assert.Equal(t, 1, entries[0].UserEntryID)
}

func TestReviewStopsWhenEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, New(newStore(t), nil, script("ghost", "3"), &out, nil).Review(context.Background()))
	assert.Contains(t, out.String(), "No entries found for user 'ghost'.")
}

func TestReviewDeletingLastEntryEnds(t *testing.T) {
	s := newStore(t)
	_, err := s.Append(context.Background(), "alice", 5, nil, nil)
	require.NoError(t, err)
	var out bytes.Buffer

	require.NoError(t, New(s, nil, script("alice", "2", "1", "1"), &out, nil).Review(context.Background()))
	assert.Contains(t, out.String(), "No entries found for user 'alice'.")
}
