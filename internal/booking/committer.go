// Package booking finalizes a checkout: it validates the selected
// seats, flips them to booked and records the booking, all in one
// database transaction. It is the sole writer of seats.is_booked.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/cinebooker/cinebooker/internal/repository"
)

// ErrNoSeats is returned when a commit names no seats. Nothing is
// written.
var ErrNoSeats = errors.New("no seats to commit")

// ErrSeatUnknown is returned when a named seat does not belong to the
// show. Handlers should translate this into a 404.
var ErrSeatUnknown = errors.New("unknown seat for show")

// ErrSeatConflict is returned when at least one named seat is already
// booked. It is a domain outcome, not a system fault: the caller
// should re-select seats rather than retry the same commit.
var ErrSeatConflict = errors.New("seat already booked")

// Result echoes the committed booking for receipt rendering.
type Result struct {
	BookingID uint64
	Seats     []string
	Total     uint32
}

// Committer owns the booking commit transaction. It needs the shared
// DB handle to open transactions spanning the seat and booking
// repositories.
type Committer struct {
	db       *sql.DB
	shows    *repository.ShowRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
}

// NewCommitter constructs a Committer. All dependencies must be
// non-nil.
func NewCommitter(db *sql.DB, shows *repository.ShowRepo, seats *repository.SeatRepo, bookings *repository.BookingRepo) *Committer {
	if db == nil || shows == nil || seats == nil || bookings == nil {
		panic("nil dependency passed to NewCommitter")
	}
	return &Committer{db: db, shows: shows, seats: seats, bookings: bookings}
}

// Commit attempts to finalize a booking for the given user, show and
// seat numbers. Seat numbers are deduplicated and sorted so the
// serialized seat list is canonical. The availability check and the
// booked flip happen in one guarded UPDATE inside the transaction, so
// two commits racing on an overlapping seat have exactly one winner;
// the loser observes a row-count shortfall, rolls back and gets
// ErrSeatConflict with no partial state.
//
// The total is recomputed from the stored seat prices rather than
// trusted from the request. On success the booking ID, the canonical
// seat list and the total are returned for the receipt.
func (c *Committer) Commit(ctx context.Context, userID, showID uint64, seatNumbers []string, method string) (*Result, error) {
	nums := canonical(seatNumbers)
	if len(nums) == 0 {
		return nil, ErrNoSeats
	}
	if _, err := c.shows.GetByID(ctx, showID); err != nil {
		return nil, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Every named seat must exist for the show. Seats missing from the
	// price map were never part of this grid.
	prices, err := c.seats.PricesByNumberTx(ctx, tx, showID, nums)
	if err != nil {
		return nil, err
	}
	if len(prices) != len(nums) {
		return nil, ErrSeatUnknown
	}
	var total uint32
	for _, n := range nums {
		total += prices[n]
	}

	affected, err := c.seats.MarkBookedTx(ctx, tx, showID, nums)
	if err != nil {
		return nil, err
	}
	if affected != int64(len(nums)) {
		return nil, ErrSeatConflict
	}

	rec := &repository.BookingRecord{
		UserID:        userID,
		ShowID:        showID,
		Seats:         strings.Join(nums, ","),
		TotalAmount:   total,
		PaymentMethod: method,
	}
	if err := c.bookings.CreateTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &Result{BookingID: rec.ID, Seats: nums, Total: total}, nil
}

// canonical deduplicates, trims and sorts seat numbers.
func canonical(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, n := range in {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
