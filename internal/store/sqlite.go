package store

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/moodlog/internal/domain"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

const entryColumns = "id, user_id, user_entry_id, mood, emotion, note, created_at"

// Store persists mood entries and keeps each user's entry numbers dense (1..N).
//
// Writers are expected to be serialized: one mutating call at a time per
// database file. Every mutation and its renumbering pass share a transaction.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
	now func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens the database at dbPath and ensures the schema exists
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Debug("store opened", zap.String("path", dbPath))
	return s, nil
}

// Initialize creates the schema if it is absent. Safe to call repeatedly.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Append validates and stores a new entry for userID, numbered after the
// user's existing entries.
func (s *Store) Append(ctx context.Context, userID string, mood int, emotion, note *string) (*domain.MoodEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrEmptyUser
	}
	if err := domain.ValidateMood(mood); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if err := s.renumber(ctx, tx, userID); err != nil {
		return nil, err
	}

	count, err := countEntries(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	entry := &domain.MoodEntry{
		GlobalID:    uuid.New().String(),
		UserID:      userID,
		UserEntryID: count + 1,
		Mood:        mood,
		Emotion:     emotion,
		Note:        note,
		CreatedAt:   s.now().Format(domain.TimestampLayout),
	}

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO moods (`+entryColumns+`)
		VALUES (:id, :user_id, :user_entry_id, :mood, :emotion, :note, :created_at)`,
		entry,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}

	s.log.Debug("entry appended",
		zap.String("user_id", userID),
		zap.Int("user_entry_id", entry.UserEntryID))
	return entry, nil
}

// Delete removes the entry numbered userEntryID for userID and renumbers the
// survivors. It reports whether a row was deleted.
func (s *Store) Delete(ctx context.Context, userID string, userEntryID int) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, domain.ErrEmptyUser
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM moods WHERE user_id = ? AND user_entry_id = ?",
		userID, userEntryID,
	)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := s.renumber(ctx, tx, userID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}

	s.log.Debug("entry deleted",
		zap.String("user_id", userID),
		zap.Int("user_entry_id", userEntryID))
	return true, nil
}

// ListAll returns every entry ordered by user then entry number
func (s *Store) ListAll(ctx context.Context) ([]domain.MoodEntry, error) {
	entries := []domain.MoodEntry{}
	err := s.db.SelectContext(ctx, &entries,
		"SELECT "+entryColumns+" FROM moods ORDER BY user_id, user_entry_id",
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// FetchRecent returns up to limit of the user's latest entries, oldest first.
// A limit <= 0 means domain.DefaultRecentLimit.
func (s *Store) FetchRecent(ctx context.Context, userID string, limit int) ([]domain.MoodEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrEmptyUser
	}
	if limit <= 0 {
		limit = domain.DefaultRecentLimit
	}

	entries := []domain.MoodEntry{}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT `+entryColumns+` FROM (
			SELECT `+entryColumns+` FROM moods
			WHERE user_id = ?
			ORDER BY user_entry_id DESC
			LIMIT ?
		) ORDER BY user_entry_id ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch recent entries: %w", err)
	}
	return entries, nil
}

// Count returns how many entries userID has
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	return countEntries(ctx, s.db, strings.TrimSpace(userID))
}

func countEntries(ctx context.Context, q sqlx.QueryerContext, userID string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM moods WHERE user_id = ?", userID); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// renumber reassigns userID's entry numbers to 1..N keeping their current order.
// Rows are visited in ascending order so each target number is already free.
func (s *Store) renumber(ctx context.Context, tx *sqlx.Tx, userID string) error {
	var rows []struct {
		ID          string `db:"id"`
		UserEntryID int    `db:"user_entry_id"`
	}
	err := tx.SelectContext(ctx, &rows,
		"SELECT id, user_entry_id FROM moods WHERE user_id = ? ORDER BY user_entry_id",
		userID,
	)
	if err != nil {
		return fmt.Errorf("select for renumber: %w", err)
	}

	moved := 0
	for i, r := range rows {
		want := i + 1
		if r.UserEntryID == want {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE moods SET user_entry_id = ? WHERE id = ?",
			want, r.ID,
		); err != nil {
			return fmt.Errorf("renumber entry: %w", err)
		}
		moved++
	}

	if moved > 0 {
		s.log.Debug("renumbered entries",
			zap.String("user_id", userID),
			zap.Int("moved", moved),
			zap.Int("total", len(rows)))
	}
	return nil
}
