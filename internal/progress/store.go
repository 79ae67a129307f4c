// Package progress persists the learning activity log: translations
// requested and exercises completed per user, kept in SQLite so the
// /progress command can summarize activity across sessions.
package progress

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Retention limits per user. Older rows beyond these are pruned on
// insert.
const (
	maxTranslations = 100
	maxExercises    = 50
)

// TranslationEvent is one recorded translation request.
type TranslationEvent struct {
	ID             int64
	UserID         string
	Text           string
	TargetLanguage string
	CreatedAt      time.Time
}

// ExerciseEvent is one recorded exercise session.
type ExerciseEvent struct {
	ID         int64
	UserID     string
	Language   string
	Difficulty string
	CreatedAt  time.Time
}

// LanguageStats aggregates a user's activity for one language.
type LanguageStats struct {
	Language     string
	Translations int
	Exercises    int
	LastActivity time.Time
}

// Store is the SQLite-backed activity log.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the progress database.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}
	return store, nil
}

func (s *Store) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS translations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			text TEXT NOT NULL,
			target_language TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS exercises (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			language TEXT NOT NULL,
			difficulty TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_translations_user_id ON translations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_exercises_user_id ON exercises(user_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}
	return nil
}

// LogTranslation records a translation request and prunes rows beyond
// the per-user retention limit.
func (s *Store) LogTranslation(userID, text, targetLanguage string) error {
	_, err := s.db.Exec(
		"INSERT INTO translations (user_id, text, target_language, created_at) VALUES (?, ?, ?, ?)",
		userID, text, targetLanguage, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to log translation: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM translations
		 WHERE user_id = ? AND id NOT IN (
			SELECT id FROM translations WHERE user_id = ? ORDER BY id DESC LIMIT ?
		 )`,
		userID, userID, maxTranslations,
	)
	if err != nil {
		return fmt.Errorf("failed to prune translations: %w", err)
	}
	return nil
}

// LogExercise records a completed exercise and prunes rows beyond the
// per-user retention limit.
func (s *Store) LogExercise(userID, language, difficulty string) error {
	_, err := s.db.Exec(
		"INSERT INTO exercises (user_id, language, difficulty, created_at) VALUES (?, ?, ?, ?)",
		userID, language, difficulty, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to log exercise: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM exercises
		 WHERE user_id = ? AND id NOT IN (
			SELECT id FROM exercises WHERE user_id = ? ORDER BY id DESC LIMIT ?
		 )`,
		userID, userID, maxExercises,
	)
	if err != nil {
		return fmt.Errorf("failed to prune exercises: %w", err)
	}
	return nil
}

// Stats aggregates a user's activity per language, most recent
// activity first.
func (s *Store) Stats(userID string) ([]LanguageStats, error) {
	byLang := make(map[string]*LanguageStats)

	// Aggregate in Go rather than with MAX(): the sqlite driver only
	// maps declared DATETIME columns to time.Time, not expressions.
	rows, err := s.db.Query(
		"SELECT target_language, created_at FROM translations WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query translation stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var at time.Time
		if err := rows.Scan(&lang, &at); err != nil {
			return nil, fmt.Errorf("failed to scan translation stats: %w", err)
		}
		stat, ok := byLang[lang]
		if !ok {
			stat = &LanguageStats{Language: lang}
			byLang[lang] = stat
		}
		stat.Translations++
		if at.After(stat.LastActivity) {
			stat.LastActivity = at
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read translation stats: %w", err)
	}

	exRows, err := s.db.Query(
		"SELECT language, created_at FROM exercises WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercise stats: %w", err)
	}
	defer exRows.Close()
	for exRows.Next() {
		var lang string
		var at time.Time
		if err := exRows.Scan(&lang, &at); err != nil {
			return nil, fmt.Errorf("failed to scan exercise stats: %w", err)
		}
		stat, ok := byLang[lang]
		if !ok {
			stat = &LanguageStats{Language: lang}
			byLang[lang] = stat
		}
		stat.Exercises++
		if at.After(stat.LastActivity) {
			stat.LastActivity = at
		}
	}
	if err := exRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exercise stats: %w", err)
	}

	stats := make([]LanguageStats, 0, len(byLang))
	for _, stat := range byLang {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].LastActivity.After(stats[j].LastActivity)
	})
	return stats, nil
}

// RecentTranslations returns the user's most recent translation
// requests, newest first.
func (s *Store) RecentTranslations(userID string, limit int) ([]TranslationEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, text, target_language, created_at
		 FROM translations WHERE user_id = ?
		 ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get translations: %w", err)
	}
	defer rows.Close()

	var events []TranslationEvent
	for rows.Next() {
		var ev TranslationEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Text, &ev.TargetLanguage, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read translations: %w", err)
	}
	return events, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
