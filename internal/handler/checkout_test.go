package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebooker/cinebooker/internal/booking"
	"github.com/cinebooker/cinebooker/internal/checkout"
	"github.com/cinebooker/cinebooker/internal/queue"
	"github.com/cinebooker/cinebooker/internal/repository"
)

const showByIDQuery = `SELECT id, movie_id, theatre_id, show_time, created_at FROM shows WHERE id = ?`

// recordingNotifier captures confirmation events instead of touching
// the broker.
type recordingNotifier struct {
	events chan queue.BookingConfirmedEvent
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) {
	n.events <- ev
}

type checkoutFixture struct {
	handler  *CheckoutHandler
	sqlMock  sqlmock.Sqlmock
	rdsMock  redismock.ClientMock
	notifier *recordingNotifier
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rdb, rdsMock := redismock.NewClientMock()
	sessions := checkout.NewStore(rdb, "checkout", time.Minute)

	showRepo := repository.NewShowRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	committer := booking.NewCommitter(db, showRepo, seatRepo, bookingRepo)
	notifier := &recordingNotifier{events: make(chan queue.BookingConfirmedEvent, 1)}

	return &checkoutFixture{
		handler:  NewCheckoutHandler(sessions, committer, showRepo, bookingRepo, notifier),
		sqlMock:  sqlMock,
		rdsMock:  rdsMock,
		notifier: notifier,
	}
}

func postJSON(body string, authedUserID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if authedUserID != 0 {
		// JWT numeric claims arrive as float64.
		c.Set("user_id", float64(authedUserID))
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSelectSeatsRejectsEmptySelection(t *testing.T) {
	f := newCheckoutFixture(t)

	c, rec := postJSON(`{"show_id":5,"seats":[],"total":240}`, 0)
	require.NoError(t, f.handler.SelectSeats(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no seats selected", decodeBody(t, rec)["error"])

	// Rejected before any store is consulted.
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	assert.NoError(t, f.rdsMock.ExpectationsWereMet())
}

func TestSelectSeatsRejectsMissingTotal(t *testing.T) {
	f := newCheckoutFixture(t)

	c, rec := postJSON(`{"show_id":5,"seats":["AA01"]}`, 0)
	require.NoError(t, f.handler.SelectSeats(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing or invalid total", decodeBody(t, rec)["error"])
}

func TestSelectSeatsUnknownShow(t *testing.T) {
	f := newCheckoutFixture(t)

	f.sqlMock.ExpectQuery(regexp.QuoteMeta(showByIDQuery)).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	c, rec := postJSON(`{"show_id":99,"seats":["AA01"],"total":120}`, 0)
	require.NoError(t, f.handler.SelectSeats(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestSelectSeatsOpensSession(t *testing.T) {
	f := newCheckoutFixture(t)

	f.sqlMock.ExpectQuery(regexp.QuoteMeta(showByIDQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "movie_id", "theatre_id", "show_time", "created_at"}).
			AddRow(5, 1, 2, "6:30 PM", "2026-01-01 10:00:00"))
	f.rdsMock.Regexp().ExpectSet(`checkout:[0-9a-f]{64}`, `\{.*"state":"SEATS_PENDING".*\}`, time.Minute).
		SetVal("OK")

	c, rec := postJSON(`{"show_id":5,"seats":["AA01","AA02"],"total":240}`, 0)
	require.NoError(t, f.handler.SelectSeats(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Len(t, body["checkout_token"], 64)
	assert.Equal(t, "SEATS_PENDING", body["state"])
	assert.Equal(t, float64(60), body["expires_in"])
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	assert.NoError(t, f.rdsMock.ExpectationsWereMet())
}

func TestPayRequiresAuth(t *testing.T) {
	f := newCheckoutFixture(t)

	c, rec := postJSON(`{"checkout_token":"abc","payment_method":"card"}`, 0)
	require.NoError(t, f.handler.Pay(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPayRequiresToken(t *testing.T) {
	f := newCheckoutFixture(t)

	c, rec := postJSON(`{"payment_method":"card"}`, 7)
	require.NoError(t, f.handler.Pay(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayExpiredSession(t *testing.T) {
	f := newCheckoutFixture(t)

	f.rdsMock.ExpectGet("checkout:tok1").RedisNil()

	c, rec := postJSON(`{"checkout_token":"tok1","payment_method":"card"}`, 7)
	require.NoError(t, f.handler.Pay(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, f.rdsMock.ExpectationsWereMet())
}

func sessionJSON(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(checkout.Session{
		State:     checkout.StateSeatsPending,
		ShowID:    5,
		Seats:     []string{"AA01", "AA02"},
		Total:     240,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return string(raw)
}

func TestPayMissingMethodAbortsCheckout(t *testing.T) {
	f := newCheckoutFixture(t)

	f.rdsMock.ExpectGet("checkout:tok1").SetVal(sessionJSON(t))
	// A checkout without a payment method cannot proceed; the session
	// is discarded so the client starts over from seat selection.
	f.rdsMock.ExpectDel("checkout:tok1").SetVal(1)

	c, rec := postJSON(`{"checkout_token":"tok1"}`, 7)
	require.NoError(t, f.handler.Pay(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, f.rdsMock.ExpectationsWereMet())
}

func TestPaySeatConflict(t *testing.T) {
	f := newCheckoutFixture(t)

	f.rdsMock.ExpectGet("checkout:tok1").SetVal(sessionJSON(t))
	f.rdsMock.Regexp().ExpectSet(`checkout:tok1`, `\{.*"state":"PAYMENT_PENDING".*\}`, time.Minute).
		SetVal("OK")

	f.sqlMock.ExpectQuery(regexp.QuoteMeta(showByIDQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "movie_id", "theatre_id", "show_time", "created_at"}).
			AddRow(5, 1, 2, "6:30 PM", "2026-01-01 10:00:00"))
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectQuery(regexp.QuoteMeta(
		`SELECT seat_number, price FROM seats WHERE show_id = ? AND seat_number IN (?,?)`)).
		WithArgs(5, "AA01", "AA02").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "price"}).
			AddRow("AA01", 120).AddRow("AA02", 120))
	// Someone else won AA02 in the meantime.
	f.sqlMock.ExpectExec(regexp.QuoteMeta(
		`UPDATE seats SET is_booked = 1 WHERE show_id = ? AND is_booked = 0 AND seat_number IN (?,?)`)).
		WithArgs(5, "AA01", "AA02").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.sqlMock.ExpectRollback()

	// The stale selection can never succeed, so the session goes too.
	f.rdsMock.ExpectDel("checkout:tok1").SetVal(1)

	c, rec := postJSON(`{"checkout_token":"tok1","payment_method":"card"}`, 7)
	require.NoError(t, f.handler.Pay(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	assert.NoError(t, f.rdsMock.ExpectationsWereMet())
}

func TestPayCommitsBooking(t *testing.T) {
	f := newCheckoutFixture(t)

	f.rdsMock.ExpectGet("checkout:tok1").SetVal(sessionJSON(t))
	f.rdsMock.Regexp().ExpectSet(`checkout:tok1`, `\{.*"state":"PAYMENT_PENDING".*\}`, time.Minute).
		SetVal("OK")

	f.sqlMock.ExpectQuery(regexp.QuoteMeta(showByIDQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "movie_id", "theatre_id", "show_time", "created_at"}).
			AddRow(5, 1, 2, "6:30 PM", "2026-01-01 10:00:00"))
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectQuery(regexp.QuoteMeta(
		`SELECT seat_number, price FROM seats WHERE show_id = ? AND seat_number IN (?,?)`)).
		WithArgs(5, "AA01", "AA02").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "price"}).
			AddRow("AA01", 120).AddRow("AA02", 120))
	f.sqlMock.ExpectExec(regexp.QuoteMeta(
		`UPDATE seats SET is_booked = 1 WHERE show_id = ? AND is_booked = 0 AND seat_number IN (?,?)`)).
		WithArgs(5, "AA01", "AA02").
		WillReturnResult(sqlmock.NewResult(0, 2))
	f.sqlMock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO bookings (user_id, show_id, seats, total_amount, payment_method) VALUES (?, ?, ?, ?, ?)`)).
		WithArgs(7, 5, "AA01,AA02", 240, "card").
		WillReturnResult(sqlmock.NewResult(91, 1))
	f.sqlMock.ExpectCommit()

	f.rdsMock.ExpectDel("checkout:tok1").SetVal(1)

	c, rec := postJSON(`{"checkout_token":"tok1","payment_method":"card"}`, 7)
	require.NoError(t, f.handler.Pay(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(91), body["booking_id"])
	assert.Equal(t, float64(240), body["total_amount"])
	assert.Equal(t, []any{"AA01", "AA02"}, body["seats"])
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	assert.NoError(t, f.rdsMock.ExpectationsWereMet())

	// The confirmation goes to the notifier, detached from the request.
	select {
	case ev := <-f.notifier.events:
		assert.Equal(t, uint64(91), ev.BookingID)
		assert.Equal(t, uint64(7), ev.UserID)
		assert.Equal(t, []string{"AA01", "AA02"}, ev.Seats)
		assert.Equal(t, "card", ev.PaymentMethod)
	case <-time.After(time.Second):
		t.Fatal("no booking confirmation published")
	}
}
