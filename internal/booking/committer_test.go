package booking

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebooker/cinebooker/internal/repository"
)

const (
	showQ    = `SELECT id, movie_id, theatre_id, show_time, created_at FROM shows WHERE id = ?`
	pricesQ  = `SELECT seat_number, price FROM seats WHERE show_id = ? AND seat_number IN (?,?)`
	bookSQ   = `UPDATE seats SET is_booked = 1 WHERE show_id = ? AND is_booked = 0 AND seat_number IN (?,?)`
	insertQ  = `INSERT INTO bookings (user_id, show_id, seats, total_amount, payment_method) VALUES (?, ?, ?, ?, ?)`
	showTime = "6:30 PM"
)

func newCommitter(t *testing.T) (*Committer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	c := NewCommitter(db,
		repository.NewShowRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db),
	)
	return c, mock
}

func expectShow(mock sqlmock.Sqlmock, showID uint64) {
	mock.ExpectQuery(regexp.QuoteMeta(showQ)).
		WithArgs(showID).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "movie_id", "theatre_id", "show_time", "created_at"}).
			AddRow(showID, 1, 2, showTime, "2026-01-01 10:00:00"))
}

func TestCommitSuccess(t *testing.T) {
	c, mock := newCommitter(t)

	expectShow(mock, 5)
	mock.ExpectBegin()
	// Lowercase duplicate input collapses to the canonical pair.
	mock.ExpectQuery(regexp.QuoteMeta(pricesQ)).
		WithArgs(5, "AA01", "AA02").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "price"}).
			AddRow("AA01", 120).AddRow("AA02", 120))
	mock.ExpectExec(regexp.QuoteMeta(bookSQ)).
		WithArgs(5, "AA01", "AA02").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(insertQ)).
		WithArgs(7, 5, "AA01,AA02", 240, "card").
		WillReturnResult(sqlmock.NewResult(91, 1))
	mock.ExpectCommit()

	res, err := c.Commit(context.Background(), 7, 5, []string{"aa02", "AA01", "aa02"}, "card")
	require.NoError(t, err)
	assert.Equal(t, uint64(91), res.BookingID)
	assert.Equal(t, []string{"AA01", "AA02"}, res.Seats)
	assert.Equal(t, uint32(240), res.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitSeatConflictRollsBack(t *testing.T) {
	c, mock := newCommitter(t)

	expectShow(mock, 5)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(pricesQ)).
		WithArgs(5, "AA01", "AA02").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "price"}).
			AddRow("AA01", 120).AddRow("AA02", 120))
	// Only one row still unbooked: the guarded update falls short.
	mock.ExpectExec(regexp.QuoteMeta(bookSQ)).
		WithArgs(5, "AA01", "AA02").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	res, err := c.Commit(context.Background(), 7, 5, []string{"AA01", "AA02"}, "card")
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.Nil(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitUnknownSeatRollsBack(t *testing.T) {
	c, mock := newCommitter(t)

	expectShow(mock, 5)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(pricesQ)).
		WithArgs(5, "AA01", "ZZ99").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "price"}).
			AddRow("AA01", 120))
	mock.ExpectRollback()

	res, err := c.Commit(context.Background(), 7, 5, []string{"AA01", "ZZ99"}, "card")
	assert.ErrorIs(t, err, ErrSeatUnknown)
	assert.Nil(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitNoSeats(t *testing.T) {
	c, mock := newCommitter(t)

	res, err := c.Commit(context.Background(), 7, 5, []string{" ", ""}, "card")
	assert.ErrorIs(t, err, ErrNoSeats)
	assert.Nil(t, res)
	// Nothing touches the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitShowNotFound(t *testing.T) {
	c, mock := newCommitter(t)

	mock.ExpectQuery(regexp.QuoteMeta(showQ)).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	res, err := c.Commit(context.Background(), 7, 99, []string{"AA01"}, "card")
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
	assert.Nil(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}
