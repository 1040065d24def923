package console

import (
	"context"
	"strconv"
)

// Review shows a user's recent entries and offers delete, refresh,
// change-limit and quit until the user quits or has no entries left.
func (c *Console) Review(ctx context.Context) error {
	c.printf("=== Mood Fetcher ===\n")
	user, err := c.askUser()
	if err != nil {
		return quitOnEOF(err)
	}
	limit, err := c.askPositive("How many recent entries to fetch? ", "Please enter a positive number.")
	if err != nil {
		return quitOnEOF(err)
	}

	for {
		entries, err := c.store.FetchRecent(ctx, user, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			c.printf("No entries found for user '%s'.\n", user)
			return nil
		}

		c.printf("\n=== Last %d entries for %s ===\n", len(entries), user)
		for _, e := range entries {
			c.printf("(Entry #%d) [%s] Mood: %d, Emotion: %s, Note: %s\n",
				e.UserEntryID, e.CreatedAt, e.Mood, orNone(e.Emotion), orNone(e.Note))
		}

		c.printf("\nOptions:\n1. Delete an entry\n2. Refresh list\n3. Change fetch limit\n4. Quit\n")
		choice, err := c.ask("Choose an option: ")
		if err != nil {
			return quitOnEOF(err)
		}

		switch choice {
		case "1":
			answer, err := c.ask("Enter the Entry # to delete: ")
			if err != nil {
				return quitOnEOF(err)
			}
			n, err := strconv.Atoi(answer)
			if err != nil {
				c.printf("Invalid ID. Must be a number.\n")
				continue
			}
			deleted, err := c.store.Delete(ctx, user, n)
			if err != nil {
				return err
			}
			if deleted {
				c.printf("Entry #%d deleted for user %s.\n", n, user)
			} else {
				c.printf("No entry #%d found for %s.\n", n, user)
			}
		case "2":
		case "3":
			answer, err := c.ask("Enter new fetch limit: ")
			if err != nil {
				return quitOnEOF(err)
			}
			n, err := strconv.Atoi(answer)
			switch {
			case err != nil:
				c.printf("Invalid number.\n")
			case n <= 0:
				c.printf("Fetch limit must be a positive number.\n")
			default:
				limit = n
			}
		case "4":
			c.printf("Goodbye!\n")
			return nil
		default:
			c.printf("Invalid option. Please choose 1-4.\n")
		}
	}
}
