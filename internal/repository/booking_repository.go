package repository

import (
	"context"
	"database/sql"
	"strings"
)

// BookingRecord mirrors the schema of the bookings table. A booking is
// created exactly once per successful checkout and is immutable
// thereafter; there are no update methods on this repository.
type BookingRecord struct {
	ID            uint64 // bookings.id
	UserID        uint64 // bookings.user_id
	ShowID        uint64 // bookings.show_id
	Seats         string // bookings.seats, serialized seat numbers ("AA01,AA02")
	TotalAmount   uint32 // bookings.total_amount
	PaymentMethod string // bookings.payment_method
	CreatedAt     string // bookings.created_at
}

// BookingDetail is a booking joined with show, movie and theatre
// information for display to customers.
type BookingDetail struct {
	ID            uint64   `json:"id"`
	ShowID        uint64   `json:"show_id"`
	MovieTitle    string   `json:"movie_title"`
	TheatreName   string   `json:"theatre_name"`
	City          string   `json:"city"`
	ShowTime      string   `json:"show_time"`
	Seats         []string `json:"seats"`
	TotalAmount   uint32   `json:"total_amount"`
	PaymentMethod string   `json:"payment_method"`
	CreatedAt     string   `json:"created_at"`
}

// BookingRepo provides persistence for bookings.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID on the provided record.
// The caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *BookingRecord) error {
	const q = `INSERT INTO bookings (user_id, show_id, seats, total_amount, payment_method) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.ShowID, b.Seats, b.TotalAmount, b.PaymentMethod)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByIDForUser returns a single booking for the given user along
// with its show, movie and theatre details. Ownership is enforced in
// the query; a booking belonging to another user surfaces as
// sql.ErrNoRows just like a missing one.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*BookingDetail, error) {
	const q = `SELECT b.id, b.show_id, m.title, t.name, t.city, s.show_time,
	                  b.seats, b.total_amount, b.payment_method, b.created_at
	           FROM bookings b
	           JOIN shows s ON s.id = b.show_id
	           JOIN movies m ON m.id = s.movie_id
	           JOIN theatres t ON t.id = s.theatre_id
	           WHERE b.id = ? AND b.user_id = ?`
	var d BookingDetail
	var seats string
	err := r.db.QueryRowContext(ctx, q, bookingID, userID).Scan(
		&d.ID, &d.ShowID, &d.MovieTitle, &d.TheatreName, &d.City, &d.ShowTime,
		&seats, &d.TotalAmount, &d.PaymentMethod, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Seats = splitSeats(seats)
	return &d, nil
}

// ListByUser returns all bookings for the given user, newest first.
// When no bookings exist, an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.show_id, m.title, t.name, t.city, s.show_time,
	                  b.seats, b.total_amount, b.payment_method, b.created_at
	           FROM bookings b
	           JOIN shows s ON s.id = b.show_id
	           JOIN movies m ON m.id = s.movie_id
	           JOIN theatres t ON t.id = s.theatre_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var seats string
		if err := rows.Scan(
			&d.ID, &d.ShowID, &d.MovieTitle, &d.TheatreName, &d.City, &d.ShowTime,
			&seats, &d.TotalAmount, &d.PaymentMethod, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Seats = splitSeats(seats)
		out = append(out, d)
	}
	return out, rows.Err()
}

// splitSeats turns the serialized seat column back into a list,
// tolerating stray whitespace around the separators.
func splitSeats(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
