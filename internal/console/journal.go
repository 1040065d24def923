package console

import (
	"context"
	"strings"

	"github.com/pbaille/moodlog/internal/domain"
	"go.uber.org/zap"
)

// Journal asks for a user once, then records entries until the user stops,
// and finishes with a dump of every stored entry.
func (c *Console) Journal(ctx context.Context) error {
	c.printf("=== Mood Logger ===\n")
	user, err := c.askUser()
	if err != nil {
		return quitOnEOF(err)
	}

	for {
		if err := c.journalOnce(ctx, user); err != nil {
			if quitOnEOF(err) != nil {
				return err
			}
			break
		}

		again, err := c.ask("Add another entry? (y/n): ")
		if err != nil || strings.ToLower(again) != "y" {
			break
		}
	}

	c.printf("\n=== All Entries (by user & time) ===\n")
	return c.printAll(ctx)
}

func (c *Console) journalOnce(ctx context.Context, user string) error {
	mood, err := c.askMood()
	if err != nil {
		return err
	}

	label := "Enter emotion (max 10 chars): "
	if c.classifier != nil {
		label = "Enter emotion (max 10 chars, blank to detect from note): "
	}
	emotion, err := c.ask(label)
	if err != nil {
		return err
	}
	emotion = truncateRunes(emotion, maxEmotionLen)

	note, err := c.ask("Enter note/description: ")
	if err != nil {
		return err
	}

	if emotion == "" && note != "" && c.classifier != nil {
		detected, err := c.classifier.Classify(ctx, note)
		if err != nil {
			c.log.Warn("emotion classification failed", zap.Error(err))
		}
		if detected != "" {
			c.printf("Detected emotion: %s\n", detected)
			emotion = detected
		} else {
			c.printf("Could not detect an emotion.\n")
		}
	}

	entry, err := c.store.Append(ctx, user, mood, domain.Optional(emotion), domain.Optional(note))
	if err != nil {
		return err
	}
	c.printf("Entry #%d saved.\n\n", entry.UserEntryID)
	return nil
}

func (c *Console) printAll(ctx context.Context) error {
	entries, err := c.store.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		c.printf("No entries found.\n")
		return nil
	}
	for _, e := range entries {
		c.printf("(Entry #%d for %s) [%s] Mood: %d, Emotion: %s, Note: %s\n",
			e.UserEntryID, e.UserID, e.CreatedAt, e.Mood, orNone(e.Emotion), orNone(e.Note))
	}
	return nil
}
