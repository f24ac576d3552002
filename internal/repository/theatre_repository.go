package repository // repository for theatre persistence

import (
	"context"
	"database/sql"
	"errors"
)

// Theatre represents a venue in a city. The pair (name, city) is
// unique; the DB enforces it with a composite unique key.
type Theatre struct {
	ID        uint64 // theatres.id
	Name      string // theatres.name
	City      string // theatres.city
	CreatedAt string // theatres.created_at
}

// ErrTheatreNotFound indicates that a theatre was not located in the DB.
var ErrTheatreNotFound = errors.New("theatre not found")

// TheatreRepo manages persistence for theatres.
type TheatreRepo struct {
	db *sql.DB
}

// NewTheatreRepo constructs a TheatreRepo with the given DB handle.
func NewTheatreRepo(db *sql.DB) *TheatreRepo { return &TheatreRepo{db: db} }

// Create inserts a new theatre. It returns ErrDuplicate when a theatre
// with the same name already exists in the same city.
func (r *TheatreRepo) Create(ctx context.Context, t *Theatre) error {
	const q = `INSERT INTO theatres (name, city) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.City)
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
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a theatre by its ID. It returns ErrTheatreNotFound
// if there is no matching row.
func (r *TheatreRepo) GetByID(ctx context.Context, id uint64) (*Theatre, error) {
	const q = `SELECT id, name, city, created_at FROM theatres WHERE id = ?`
	var t Theatre
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.City, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTheatreNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByCity returns all theatres in a city ordered by name. An empty
// city returns every theatre.
func (r *TheatreRepo) ListByCity(ctx context.Context, city string) ([]Theatre, error) {
	q := `SELECT id, name, city, created_at FROM theatres ORDER BY city, name`
	args := []interface{}{}
	if city != "" {
		q = `SELECT id, name, city, created_at FROM theatres WHERE city = ? ORDER BY name`
		args = append(args, city)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Theatre, 0)
	for rows.Next() {
		var t Theatre
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
