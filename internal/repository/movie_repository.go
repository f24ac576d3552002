package repository // repository contains data access logic for the movie catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Movie represents a film that can be scheduled for shows. Titles are
// intentionally not unique in storage; duplicate titles are collapsed
// at listing time only.
type Movie struct {
	ID        uint64  // movies.id
	Title     string  // movies.title
	Language  string  // movies.language
	Poster    *string // movies.poster (nullable)
	CreatedAt string  // movies.created_at
}

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a new movie and assigns the generated ID back to the
// struct. Duplicate titles are allowed.
func (r *MovieRepo) Create(ctx context.Context, m *Movie) error {
	const q = `INSERT INTO movies (title, language, poster) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Language, m.Poster)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID retrieves a movie by its ID. It returns ErrMovieNotFound if
// there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*Movie, error) {
	const q = `SELECT id, title, language, poster, created_at FROM movies WHERE id = ?`
	var m Movie
	var poster sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.Language, &poster, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	if poster.Valid {
		p := poster.String
		m.Poster = &p
	}
	return &m, nil
}

// List returns all movies ordered by title then ID. Callers that render
// a catalog page should collapse duplicate titles themselves; storage
// keeps every row.
func (r *MovieRepo) List(ctx context.Context) ([]Movie, error) {
	const q = `SELECT id, title, language, poster, created_at FROM movies ORDER BY title, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Movie, 0)
	for rows.Next() {
		var m Movie
		var poster sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &m.Language, &poster, &m.CreatedAt); err != nil {
			return nil, err
		}
		if poster.Valid {
			p := poster.String
			m.Poster = &p
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// FindByTitleAndLanguage returns the first movie matching the given
// title and language, ignoring case on the title. Used by the seeder
// to keep reruns idempotent. Returns ErrMovieNotFound when absent.
func (r *MovieRepo) FindByTitleAndLanguage(ctx context.Context, title, language string) (*Movie, error) {
	const q = `SELECT id, title, language, poster, created_at FROM movies
	           WHERE LOWER(title) = ? AND language = ? ORDER BY id LIMIT 1`
	var m Movie
	var poster sql.NullString
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(title), language).Scan(
		&m.ID, &m.Title, &m.Language, &poster, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	if poster.Valid {
		p := poster.String
		m.Poster = &p
	}
	return &m, nil
}
