// Package history keeps a local reading log: which passages were analysed,
// where in which book, and through which lens. Replies are not stored.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	_ "modernc.org/sqlite"

	"github.com/arin/locus/internal/config"
)

const (
	fileName = "history.db"
	// maxExcerpt bounds the stored passage, in runes.
	maxExcerpt = 280
	// timeLayout sorts lexicographically in UTC.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Entry is one analysed passage.
type Entry struct {
	ID        string
	Book      string
	Locator   string
	Lens      string
	Kind      string
	Provider  string
	Excerpt   string
	CreatedAt time.Time
}

// Filter narrows Recent. Zero values match everything.
type Filter struct {
	Since time.Time
	Book  string
	Lens  string
	Limit int
}

// Log is the SQLite-backed reading log.
type Log struct {
	conn *sql.DB
}

// DefaultPath returns ~/.locus/history.db.
func DefaultPath() string {
	return filepath.Join(config.Dir(), fileName)
}

// Open opens or creates the log at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	l := &Log{conn: conn}
	if err := l.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return l, nil
}

func (l *Log) initSchema() error {
	_, err := l.conn.Exec(`
	CREATE TABLE IF NOT EXISTS readings (
		id TEXT PRIMARY KEY,
		book TEXT NOT NULL DEFAULT '',
		locator TEXT NOT NULL DEFAULT '',
		lens TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_readings_created_at ON readings(created_at);
	CREATE INDEX IF NOT EXISTS idx_readings_book ON readings(book);
	`)
	return err
}

// Close closes the database.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Add stores e, filling in ID and CreatedAt when unset, and returns the
// stored entry.
func (l *Log) Add(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Excerpt = truncate(strings.Join(strings.Fields(e.Excerpt), " "), maxExcerpt)

	_, err := l.conn.Exec(`
		INSERT INTO readings (id, book, locator, lens, kind, provider, excerpt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Book, e.Locator, e.Lens, e.Kind, e.Provider, e.Excerpt,
		e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record reading: %w", err)
	}
	return e, nil
}

// Recent returns matching entries, newest first.
func (l *Log) Recent(f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if f.Book != "" {
		where = append(where, "book LIKE ?")
		args = append(args, "%"+f.Book+"%")
	}
	if f.Lens != "" {
		where = append(where, "lens = ?")
		args = append(args, strings.ToLower(f.Lens))
	}

	query := "SELECT id, book, locator, lens, kind, provider, excerpt, created_at FROM readings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := l.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Book, &e.Locator, &e.Lens, &e.Kind, &e.Provider, &e.Excerpt, &created); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("bad timestamp %q in history: %w", created, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored entries.
func (l *Log) Count() (int, error) {
	var n int
	err := l.conn.QueryRow("SELECT COUNT(*) FROM readings").Scan(&n)
	return n, err
}

// Clear deletes every entry and returns how many were removed.
func (l *Log) Clear() (int64, error) {
	res, err := l.conn.Exec("DELETE FROM readings")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ParseSince turns "yesterday", "last week", "3 days ago" or a plain date
// into a point in time relative to now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339, "2006/01/02"} {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	if r, err := w.Parse(s, now); err == nil && r != nil {
		return r.Time, nil
	}
	return time.Time{}, fmt.Errorf("cannot understand date %q", s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
