package cleanblog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store wraps a SQLite database and provides CRUD operations for blog posts.
// Each write runs in its own transaction; concurrent writes to the same post
// are last-writer-wins.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used to stamp new posts.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the posts table.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	// busy_timeout must come first so the connection blocks on a busy
	// database before WAL is switched on.
	pragmas := "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS blog_post (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL UNIQUE,
    subtitle TEXT NOT NULL,
    date TEXT NOT NULL,
    body TEXT NOT NULL,
    author TEXT NOT NULL,
    img_url TEXT NOT NULL
);
`)
	return err
}

const postColumns = `id, title, subtitle, date, body, author, img_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Date, &p.Body, &p.Author, &p.ImageURL)
	return p, err
}

// ListAll returns every post in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM blog_post ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Get returns the post with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_post WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, nil
}

// Create validates fields, stamps the creation date, and inserts a new post.
// It returns a *ValidationError for bad input and ErrConflict when the title
// is already used.
func (s *Store) Create(ctx context.Context, fields PostFields) (Post, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return Post{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Post{}, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	if err := titleTaken(ctx, tx, fields.Title, 0); err != nil {
		return Post{}, err
	}
	post := Post{
		Title:    fields.Title,
		Subtitle: fields.Subtitle,
		Date:     s.now().Format(DateLayout),
		Body:     fields.Body,
		Author:   fields.Author,
		ImageURL: fields.ImageURL,
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO blog_post (title, subtitle, date, body, author, img_url) VALUES (?, ?, ?, ?, ?, ?)`,
		post.Title, post.Subtitle, post.Date, post.Body, post.Author, post.ImageURL)
	if err != nil {
		return Post{}, mapWriteError("create post", err)
	}
	if post.ID, err = res.LastInsertId(); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Post{}, mapWriteError("commit create", err)
	}
	return post, nil
}

// Update replaces every field of post id except its id and date. It returns
// ErrNotFound when the post does not exist, then the same errors as Create.
func (s *Store) Update(ctx context.Context, id int64, fields PostFields) (Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Post{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var date string
	err = tx.QueryRowContext(ctx, `SELECT date FROM blog_post WHERE id = ?`, id).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("update post %d: %w", id, err)
	}

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return Post{}, err
	}
	if err := titleTaken(ctx, tx, fields.Title, id); err != nil {
		return Post{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE blog_post SET title = ?, subtitle = ?, body = ?, author = ?, img_url = ? WHERE id = ?`,
		fields.Title, fields.Subtitle, fields.Body, fields.Author, fields.ImageURL, id); err != nil {
		return Post{}, mapWriteError("update post", err)
	}
	if err := tx.Commit(); err != nil {
		return Post{}, mapWriteError("commit update", err)
	}
	return Post{
		ID:       id,
		Title:    fields.Title,
		Subtitle: fields.Subtitle,
		Date:     date,
		Body:     fields.Body,
		Author:   fields.Author,
		ImageURL: fields.ImageURL,
	}, nil
}

// Delete removes the post with the given id. Deleting a missing post is not
// an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blog_post WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

// titleTaken returns ErrConflict if a post other than exceptID uses title.
func titleTaken(ctx context.Context, tx *sql.Tx, title string, exceptID int64) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_post WHERE title = ? AND id != ?`, title, exceptID).Scan(&n); err != nil {
		return fmt.Errorf("check title: %w", err)
	}
	if n > 0 {
		return ErrConflict
	}
	return nil
}

// mapWriteError turns a unique-constraint violation into ErrConflict; the
// pre-check in the transaction can race with another writer.
func mapWriteError(op string, err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
			return ErrConflict
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
