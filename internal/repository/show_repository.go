package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Show represents a scheduled screening of a movie at a theatre. Show
// times are short display strings ("6:30 PM") rather than timestamps;
// the triple (movie, theatre, show_time) is unique.
type Show struct {
	ID        uint64 // ID is the primary key of the show
	MovieID   uint64 // MovieID references the movie being screened
	TheatreID uint64 // TheatreID references the venue
	ShowTime  string // ShowTime is the display time of the screening ("6:30 PM")
	CreatedAt string // CreatedAt records row creation time
}

// ShowListing is a show joined with its movie and theatre for browse
// pages, so clients do not need follow-up lookups per row.
type ShowListing struct {
	ID          uint64 `json:"id"`
	MovieID     uint64 `json:"movie_id"`
	MovieTitle  string `json:"movie_title"`
	TheatreID   uint64 `json:"theatre_id"`
	TheatreName string `json:"theatre_name"`
	City        string `json:"city"`
	ShowTime    string `json:"show_time"`
}

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories, such as creating a show
// together with its seat grid.
func (r *ShowRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts a new show using the provided transaction. The
// caller must commit or roll back. On success the generated ID is
// populated on the given Show. It returns ErrDuplicate when a show
// with the same movie, theatre and show_time already exists.
func (r *ShowRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *Show) error {
	const q = `INSERT INTO shows (movie_id, theatre_id, show_time) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.MovieID, s.TheatreID, s.ShowTime)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a show by its ID. It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*Show, error) {
	const q = `SELECT id, movie_id, theatre_id, show_time, created_at FROM shows WHERE id = ?`
	var s Show
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.TheatreID, &s.ShowTime, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByMovieAndCity returns listings for a movie, optionally filtered
// by city. Results are ordered by city, theatre name and show time for
// deterministic output.
func (r *ShowRepo) ListByMovieAndCity(ctx context.Context, movieID uint64, city string) ([]ShowListing, error) {
	q := `SELECT s.id, s.movie_id, m.title, s.theatre_id, t.name, t.city, s.show_time
	      FROM shows s
	      JOIN movies m ON m.id = s.movie_id
	      JOIN theatres t ON t.id = s.theatre_id
	      WHERE s.movie_id = ?`
	args := []interface{}{movieID}
	if city != "" {
		q += ` AND t.city = ?`
		args = append(args, city)
	}
	q += ` ORDER BY t.city, t.name, s.show_time`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ShowListing, 0)
	for rows.Next() {
		var l ShowListing
		if err := rows.Scan(&l.ID, &l.MovieID, &l.MovieTitle, &l.TheatreID, &l.TheatreName, &l.City, &l.ShowTime); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetListing returns a single show joined with movie and theatre
// details. Used when assembling booking confirmations. Returns
// ErrShowNotFound when the show does not exist.
func (r *ShowRepo) GetListing(ctx context.Context, id uint64) (*ShowListing, error) {
	const q = `SELECT s.id, s.movie_id, m.title, s.theatre_id, t.name, t.city, s.show_time
	           FROM shows s
	           JOIN movies m ON m.id = s.movie_id
	           JOIN theatres t ON t.id = s.theatre_id
	           WHERE s.id = ?`
	var l ShowListing
	err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &l.MovieID, &l.MovieTitle, &l.TheatreID, &l.TheatreName, &l.City, &l.ShowTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ExistsByTriple reports whether a show already exists for the given
// movie, theatre and time. The seeder uses this to stay idempotent.
func (r *ShowRepo) ExistsByTriple(ctx context.Context, movieID, theatreID uint64, showTime string) (bool, error) {
	const q = `SELECT id FROM shows WHERE movie_id = ? AND theatre_id = ? AND show_time = ? LIMIT 1`
	var id uint64
	err := r.db.QueryRowContext(ctx, q, movieID, theatreID, showTime).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
