package repository // repository for seat persistence

import (
	"context"
	"database/sql"
	"strings"
)

// Seat represents one seat of a show's grid. Seats are created in bulk
// exactly once when the show is created and are never deleted. The
// is_booked flag transitions false to true at most once, and only the
// booking commit path writes it.
type Seat struct {
	ID         uint64 // seats.id
	ShowID     uint64 // seats.show_id
	SeatNumber string // seats.seat_number, row label + zero-padded column ("AA01")
	SeatClass  string // seats.seat_class ("Balcony", "First Class")
	Price      uint32 // seats.price in whole currency units
	IsBooked   bool   // seats.is_booked
}

// SeatRepo encapsulates database operations for seats.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulkTx inserts multiple seat records in one statement within
// the provided transaction. Passing an empty slice has no effect and
// returns nil. The unique key on (show_id, seat_number) surfaces as
// ErrDuplicate if a grid is generated twice for the same show.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (show_id, seat_number, seat_class, price, is_booked) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.ShowID, s.SeatNumber, s.SeatClass, s.Price, s.IsBooked)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// ListByShow returns every seat of a show in creation order, which is
// the deterministic grid order (class, row, column).
func (r *SeatRepo) ListByShow(ctx context.Context, showID uint64) ([]Seat, error) {
	const q = `SELECT id, show_id, seat_number, seat_class, price, is_booked
	           FROM seats WHERE show_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Seat, 0)
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.ID, &s.ShowID, &s.SeatNumber, &s.SeatClass, &s.Price, &s.IsBooked); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PricesByNumberTx returns a map from seat_number to price for the
// given seat numbers of a show, within a transaction. Absent seats are
// simply missing from the map; callers detect them by comparing sizes.
func (r *SeatRepo) PricesByNumberTx(ctx context.Context, tx *sql.Tx, showID uint64, numbers []string) (map[string]uint32, error) {
	if len(numbers) == 0 {
		return map[string]uint32{}, nil
	}
	query := `SELECT seat_number, price FROM seats WHERE show_id = ? AND seat_number IN (` +
		placeholders(len(numbers)) + `)`
	args := make([]interface{}, 0, len(numbers)+1)
	args = append(args, showID)
	for _, n := range numbers {
		args = append(args, n)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prices := make(map[string]uint32, len(numbers))
	for rows.Next() {
		var num string
		var price uint32
		if err := rows.Scan(&num, &price); err != nil {
			return nil, err
		}
		prices[num] = price
	}
	return prices, rows.Err()
}

// MarkBookedTx flips is_booked for the named seats of a show, guarded
// by their current unbooked state, and returns the number of rows
// actually updated. The guard makes the availability check and the
// update a single atomic statement: when two commits race on a seat,
// only one UPDATE matches the row. Callers compare the returned count
// against the requested count and roll back on a shortfall.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, showID uint64, numbers []string) (int64, error) {
	if len(numbers) == 0 {
		return 0, nil
	}
	query := `UPDATE seats SET is_booked = 1 WHERE show_id = ? AND is_booked = 0 AND seat_number IN (` +
		placeholders(len(numbers)) + `)`
	args := make([]interface{}, 0, len(numbers)+1)
	args = append(args, showID)
	for _, n := range numbers {
		args = append(args, n)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// placeholders builds a "?, ?, ?" list of the given length for IN
// clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
