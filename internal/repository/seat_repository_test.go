package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*SeatRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSeatRepo(db), mock
}

func TestCreateBulkTxBuildsMultiValuesInsert(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO seats (show_id, seat_number, seat_class, price, is_booked) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)`)).
		WithArgs(
			3, "AA01", "Balcony", 120, false,
			3, "AA02", "Balcony", 120, false,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := repo.db.Begin()
	require.NoError(t, err)
	err = repo.CreateBulkTx(context.Background(), tx, []Seat{
		{ShowID: 3, SeatNumber: "AA01", SeatClass: "Balcony", Price: 120},
		{ShowID: 3, SeatNumber: "AA02", SeatClass: "Balcony", Price: 120},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBulkTxEmptyIsNoop(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := repo.db.Begin()
	require.NoError(t, err)
	assert.NoError(t, repo.CreateBulkTx(context.Background(), tx, nil))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBookedTxGuardsOnUnbooked(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	// The availability guard lives in the WHERE clause.
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE seats SET is_booked = 1 WHERE show_id = ? AND is_booked = 0 AND seat_number IN (?,?)`)).
		WithArgs(3, "AA01", "AA02").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	tx, err := repo.db.Begin()
	require.NoError(t, err)
	affected, err := repo.MarkBookedTx(context.Background(), tx, 3, []string{"AA01", "AA02"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricesByNumberTxSkipsUnknownSeats(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT seat_number, price FROM seats WHERE show_id = ? AND seat_number IN (?,?)`)).
		WithArgs(3, "AA01", "ZZ99").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "price"}).AddRow("AA01", 120))
	mock.ExpectRollback()

	tx, err := repo.db.Begin()
	require.NoError(t, err)
	prices, err := repo.PricesByNumberTx(context.Background(), tx, 3, []string{"AA01", "ZZ99"})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"AA01": 120}, prices)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
