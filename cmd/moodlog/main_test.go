package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--db", filepath.Join(dir, "moods.db"),
	}
	cmd.SetArgs(append(base, args...))
	cmd.SetIn(strings.NewReader(stdin))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	var err error
	printed := captureStdout(func() { err = cmd.Execute() })
	return printed + out.String(), err
}

func captureStdout(fn func()) string {
	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = orig
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestAddRecentDelete(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	dir := t.TempDir()

	out, err := run(t, dir, "", "add", "alice", "7", "--emotion", "Happy", "--note", "good day")
	require.NoError(t, err)
	assert.Contains(t, out, "Added entry #1 for alice")

	_, err = run(t, dir, "", "add", "alice", "3", "-e", "Sad", "-m", "tired")
	require.NoError(t, err)
	_, err = run(t, dir, "", "add", "alice", "9")
	require.NoError(t, err)

	_, err = run(t, dir, "", "add", "alice", "11")
	assert.Error(t, err)

	out, err = run(t, dir, "", "recent", "alice", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Mood 3 | Emotion Sad | Note: tired")
	assert.Contains(t, out, "Mood 9 | Emotion None | Note: No note")
	assert.NotContains(t, out, "good day")

	out, err = run(t, dir, "", "delete", "alice", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry #1 deleted for user alice.")

	out, err = run(t, dir, "", "delete", "alice", "99")
	require.NoError(t, err)
	assert.Contains(t, out, "No entry #99 found for alice.")

	out, err = run(t, dir, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "#1   [")
	assert.Contains(t, out, "Mood 3")
	assert.NotContains(t, out, "Mood 7")
}

func TestRecentJSON(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "", "recent", "nobody", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "error"`)
	assert.Contains(t, out, "No entries found for user nobody.")
}

func TestJournalCommand(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	dir := t.TempDir()

	out, err := run(t, dir, "bob\n6\ncalm\nwalk in the park\nn\n", "journal")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry #1 saved.")
	assert.Contains(t, out, "(Entry #1 for bob)")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database ready")
	assert.FileExists(t, filepath.Join(dir, "moods.db"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "alice", truncate("alice", 12))
	assert.Equal(t, "abcdefghi...", truncate("abcdefghijklmnop", 12))

	got := truncate("éléphant-rosé-du-jardin", 12)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "éléphant-...", got)
}
