// Package archive keeps a SQLite log of normalized feed snapshots.
// Only extracted values are stored, never the fetched documents.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scipunch/syndian/feed"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by Latest when a url was never recorded
var ErrNotFound = errors.New("no snapshot recorded")

// Archive stores one snapshot per recorded refresh
type Archive struct {
	db *sql.DB
}

// Snapshot is a feed as it looked when it was recorded
type Snapshot struct {
	ID          int64
	URL         string
	Dialect     string
	Title       string
	Description string
	Replaced    bool
	RecordedAt  time.Time
	Articles    []Article
}

// Article is a stored article. Variables hold the outer markup of each child element.
type Article struct {
	Position    int
	Title       string
	Link        string
	Description string
	Variables   map[string]string
}

// Stats contains archive statistics
type Stats struct {
	Feeds          int
	Snapshots      int
	Articles       int
	OldestSnapshot time.Time
}

// Open initializes the archive database at the given path
func Open(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory with %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database with %w", err)
	}

	a, err := OpenFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// OpenFromDB applies the schema to an already opened database
func OpenFromDB(db *sql.DB) (*Archive, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize archive schema with %w", err)
	}
	return &Archive{db: db}, nil
}

// Record stores the current state of f and returns the snapshot id
func (a *Archive) Record(ctx context.Context, f *feed.Feed) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin archive transaction with %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(url, dialect, title, description, replaced, article_count, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.URL(), f.Dialect().String(), f.Title(), f.Description(), f.Replaced(), f.Len(), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot of '%s' with %w", f.URL(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_articles
		(snapshot_id, position, title, link, description, variables)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare article insert with %w", err)
	}
	defer stmt.Close()

	for i, article := range f.All() {
		vars, err := encodeVariables(article)
		if err != nil {
			return 0, err
		}
		_, err = stmt.ExecContext(ctx, id, i, article.Title(), article.Link(), article.Description(), vars)
		if err != nil {
			return 0, fmt.Errorf("failed to insert article %d of '%s' with %w", i, f.URL(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot of '%s' with %w", f.URL(), err)
	}
	slog.Debug("snapshot recorded", "url", truncate(f.URL(), 50), "id", id, "articles", f.Len())
	return id, nil
}

// Latest returns the most recent snapshot of url
func (a *Archive) Latest(ctx context.Context, url string) (Snapshot, error) {
	var (
		s          Snapshot
		recordedAt int64
	)
	err := a.db.QueryRowContext(ctx, `
		SELECT id, url, dialect, title, description, replaced, recorded_at
		FROM snapshots WHERE url = ? ORDER BY id DESC LIMIT 1
	`, url).Scan(&s.ID, &s.URL, &s.Dialect, &s.Title, &s.Description, &s.Replaced, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("%w for '%s'", ErrNotFound, url)
	}
	if err != nil {
		return s, fmt.Errorf("failed to read snapshot of '%s' with %w", url, err)
	}
	s.RecordedAt = time.Unix(recordedAt, 0)

	rows, err := a.db.QueryContext(ctx, `
		SELECT position, title, link, description, variables
		FROM snapshot_articles WHERE snapshot_id = ? ORDER BY position
	`, s.ID)
	if err != nil {
		return s, fmt.Errorf("failed to read articles of snapshot %d with %w", s.ID, err)
	}
	defer rows.Close()

	s.Articles = []Article{}
	for rows.Next() {
		var (
			article Article
			vars    string
		)
		if err := rows.Scan(&article.Position, &article.Title, &article.Link, &article.Description, &vars); err != nil {
			return s, err
		}
		if err := json.Unmarshal([]byte(vars), &article.Variables); err != nil {
			return s, fmt.Errorf("failed to decode variables of snapshot %d with %w", s.ID, err)
		}
		s.Articles = append(s.Articles, article)
	}
	return s, rows.Err()
}

// Clear removes all snapshots
func (a *Archive) Clear() error {
	if _, err := a.db.Exec("DELETE FROM snapshot_articles"); err != nil {
		return fmt.Errorf("failed to clear snapshot articles with %w", err)
	}
	if _, err := a.db.Exec("DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshots with %w", err)
	}
	return nil
}

// Stats returns archive statistics
func (a *Archive) Stats() (Stats, error) {
	var stats Stats

	err := a.db.QueryRow("SELECT COUNT(*), COUNT(DISTINCT url) FROM snapshots").Scan(&stats.Snapshots, &stats.Feeds)
	if err != nil {
		return stats, err
	}

	err = a.db.QueryRow("SELECT COUNT(*) FROM snapshot_articles").Scan(&stats.Articles)
	if err != nil {
		return stats, err
	}

	var oldestUnix sql.NullInt64
	err = a.db.QueryRow("SELECT MIN(recorded_at) FROM snapshots").Scan(&oldestUnix)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stats, err
	}
	if oldestUnix.Valid && oldestUnix.Int64 > 0 {
		stats.OldestSnapshot = time.Unix(oldestUnix.Int64, 0)
	}

	return stats, nil
}

// Close closes the archive database
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// DefaultPath returns the default archive database path
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "archive.db"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "syndian", "archive.db")
}

func encodeVariables(a feed.Article) (string, error) {
	vars := make(map[string]string)
	for name, node := range a.Variables() {
		vars[name] = node.OuterXML()
	}
	blob, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode variables with %w", err)
	}
	return string(blob), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
