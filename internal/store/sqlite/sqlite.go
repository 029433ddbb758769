// internal/store/sqlite/sqlite.go
//
// SQLite implementation of store.Store.
// Responsibilities:
//   - Opening the database file with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Mapping users/blogs rows to model records; comments are stored as a JSON array.
//
// Ids are generated here as hex ObjectIDs so responses look the same as with
// the MongoDB store.

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is a store.Store backed by a single SQLite file.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (and creates if missing) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrationFS); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// openDB ensures the parent directory exists and opens the file with busy
// timeout, WAL journaling and foreign keys enabled.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies every migrations/*.sql file in lexical order, once each.
func migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close(ctx context.Context) error { return s.db.Close() }

// ------------------------------- users -------------------------------------

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	id := model.NewID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, name, password_hash, created_at) VALUES (?,?,?,?,?)`,
		id, u.Username, u.Name, u.PasswordHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateUsername
		}
		return err
	}
	u.ID = id
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	if err := store.CheckID(id); err != nil {
		return model.User{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, username, name, password_hash FROM users WHERE id=?`, id)
	return s.scanUser(ctx, row)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, name, password_hash FROM users WHERE lower(username)=lower(?)`, username)
	return s.scanUser(ctx, row)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, name, password_hash FROM users ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		posts, err := s.userPosts(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Posts = posts
	}
	return out, nil
}

func (s *Store) AddUserPost(ctx context.Context, userID, postID string) error {
	if err := store.CheckID(userID); err != nil {
		return err
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO user_blogs (user_id, blog_id) VALUES (?,?)`, userID, postID)
	return err
}

// scanUser converts a *sql.Row into a User and loads its post ids.
func (s *Store) scanUser(ctx context.Context, row *sql.Row) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	posts, err := s.userPosts(ctx, u.ID)
	if err != nil {
		return model.User{}, err
	}
	u.Posts = posts
	return u, nil
}

func (s *Store) userPosts(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT blog_id FROM user_blogs WHERE user_id=? ORDER BY rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ------------------------------- posts -------------------------------------

func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	comments, err := encodeComments(p.Comments)
	if err != nil {
		return err
	}
	id := model.NewID()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blogs (id, title, author, url, likes, comments, user_id, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		id, p.Title, p.Author, p.URL, p.Likes, comments, nullIfEmpty(p.UserID),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	if err := store.CheckID(id); err != nil {
		return model.Post{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, url, likes, comments, COALESCE(user_id,'')
		FROM blogs WHERE id=?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, store.ErrNotFound
	}
	return p, err
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, author, url, likes, comments, COALESCE(user_id,'')
		FROM blogs ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePost reads, merges and writes back inside one transaction.
func (s *Store) UpdatePost(ctx context.Context, id string, patch model.PostPatch) error {
	if err := store.CheckID(id); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, title, author, url, likes, comments, COALESCE(user_id,'')
		FROM blogs WHERE id=?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	patch.Apply(&p)
	comments, err := encodeComments(p.Comments)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE blogs SET title=?, author=?, url=?, likes=?, comments=? WHERE id=?`,
		p.Title, p.Author, p.URL, p.Likes, comments, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SetComments(ctx context.Context, id string, comments []string) error {
	if err := store.CheckID(id); err != nil {
		return err
	}
	enc, err := encodeComments(comments)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE blogs SET comments=? WHERE id=?`, enc, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := store.CheckID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id=?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// ------------------------------- helpers -----------------------------------

func scanPost(scanner interface{ Scan(dest ...any) error }) (model.Post, error) {
	var (
		p        model.Post
		comments string
	)
	if err := scanner.Scan(&p.ID, &p.Title, &p.Author, &p.URL, &p.Likes, &comments, &p.UserID); err != nil {
		return model.Post{}, err
	}
	if comments != "" {
		if err := json.Unmarshal([]byte(comments), &p.Comments); err != nil {
			return model.Post{}, fmt.Errorf("decode comments for %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func encodeComments(c []string) (string, error) {
	if c == nil {
		c = []string{}
	}
	b, err := json.Marshal(c)
	return string(b), err
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
