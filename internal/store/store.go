// Package store keeps extracted records in a SQLite database so later runs
// and tools can query them without re-scraping.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hyperifyio/scpscraper/internal/record"
)

// ErrNotFound is returned by Get for identifiers never saved.
var ErrNotFound = errors.New("record not found")

// Store is a SQLite-backed record table keyed by identifier.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer; the runner saves from a single goroutine anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createTables() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY,
		name TEXT,
		rating INTEGER NOT NULL DEFAULT 0,
		image_src TEXT,
		image_caption TEXT,
		content TEXT NOT NULL,
		revision INTEGER NOT NULL DEFAULT 0,
		last_edited INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL,
		discussion TEXT,
		scraped_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_last_edited ON records(last_edited);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Save inserts or replaces rec.
func (s *Store) Save(ctx context.Context, rec *record.Record) error {
	content, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("serialize content: %w", err)
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("serialize tags: %w", err)
	}
	const query = `
	INSERT INTO records (id, name, rating, image_src, image_caption, content, revision, last_edited, tags, discussion, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		rating = excluded.rating,
		image_src = excluded.image_src,
		image_caption = excluded.image_caption,
		content = excluded.content,
		revision = excluded.revision,
		last_edited = excluded.last_edited,
		tags = excluded.tags,
		discussion = excluded.discussion,
		scraped_at = CURRENT_TIMESTAMP
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, nullable(rec.Name), rec.Rating, nullable(rec.Image.Src), nullable(rec.Image.Caption),
		string(content), rec.Revision, rec.LastEdited, string(tagsJSON), rec.Discussion)
	if err != nil {
		return fmt.Errorf("save record %d: %w", rec.ID, err)
	}
	return nil
}

// Get loads the record saved for id.
func (s *Store) Get(ctx context.Context, id int) (*record.Record, error) {
	const query = `
	SELECT id, name, rating, image_src, image_caption, content, revision, last_edited, tags, discussion
	FROM records WHERE id = ?
	`
	var (
		rec                     record.Record
		name, src, caption, dis sql.NullString
		content, tags           string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &name, &rec.Rating, &src, &caption, &content, &rec.Revision, &rec.LastEdited, &tags, &dis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load record %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(content), &rec.Content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	rec.Name = ptr(name)
	rec.Image.Src = ptr(src)
	rec.Image.Caption = ptr(caption)
	rec.Discussion = dis.String
	return &rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
