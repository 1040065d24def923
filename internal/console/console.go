// Package console implements the interactive journaling and review loops.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pbaille/moodlog/internal/domain"
	"go.uber.org/zap"
)

// maxEmotionLen bounds typed emotion labels, in runes
const maxEmotionLen = 10

// Store is the subset of the entry store the console drives
type Store interface {
	Append(ctx context.Context, userID string, mood int, emotion, note *string) (*domain.MoodEntry, error)
	Delete(ctx context.Context, userID string, userEntryID int) (bool, error)
	ListAll(ctx context.Context) ([]domain.MoodEntry, error)
	FetchRecent(ctx context.Context, userID string, limit int) ([]domain.MoodEntry, error)
}

// EmotionSource labels note text with an emotion, or "" when none fits
type EmotionSource interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Console reads answers from in and writes prompts and listings to out
type Console struct {
	store      Store
	classifier EmotionSource
	in         *bufio.Scanner
	out        io.Writer
	log        *zap.Logger
}

// New creates a Console. classifier and log may be nil.
func New(store Store, classifier EmotionSource, in io.Reader, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{
		store:      store,
		classifier: classifier,
		in:         bufio.NewScanner(in),
		out:        out,
		log:        log,
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// ask prints label and returns the trimmed answer; io.EOF when input ends
func (c *Console) ask(label string) (string, error) {
	c.printf("%s", label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) askUser() (string, error) {
	for {
		user, err := c.ask("Enter user ID: ")
		if err != nil {
			return "", err
		}
		if user != "" {
			return user, nil
		}
		c.printf("User ID cannot be empty.\n")
	}
}

func (c *Console) askMood() (int, error) {
	for {
		answer, err := c.ask(fmt.Sprintf("Enter mood (%d-%d): ", domain.MinMood, domain.MaxMood))
		if err != nil {
			return 0, err
		}
		mood, err := strconv.Atoi(answer)
		if err != nil {
			c.printf("Please enter a valid number.\n")
			continue
		}
		if domain.ValidateMood(mood) != nil {
			c.printf("Mood must be between %d and %d.\n", domain.MinMood, domain.MaxMood)
			continue
		}
		return mood, nil
	}
}

func (c *Console) askPositive(label, invalid string) (int, error) {
	for {
		answer, err := c.ask(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil {
			c.printf("Please enter a valid integer.\n")
			continue
		}
		if n <= 0 {
			c.printf("%s\n", invalid)
			continue
		}
		return n, nil
	}
}

// quitOnEOF turns end of input into a normal exit
func quitOnEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func orNone(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
