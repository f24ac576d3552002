package checkout

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginRejectsEmptySelection(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb, "checkout", time.Minute)

	sess, err := s.Begin(context.Background(), 1, nil, 120)
	assert.ErrorIs(t, err, ErrNoSeats)
	assert.Nil(t, sess)

	sess, err = s.Begin(context.Background(), 1, []string{"AA01"}, 0)
	assert.ErrorIs(t, err, ErrNoTotal)
	assert.Nil(t, sess)

	// Invalid selections never reach Redis.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginStoresSeatsPendingSession(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb, "checkout", time.Minute)

	// Tokens are random, so match key and value by pattern.
	mock.Regexp().ExpectSet(`checkout:[0-9a-f]{64}`, `\{.*"state":"SEATS_PENDING".*\}`, time.Minute).
		SetVal("OK")

	sess, err := s.Begin(context.Background(), 3, []string{"AA01", "AA02"}, 240)
	require.NoError(t, err)
	assert.Len(t, sess.Token, 64)
	assert.Equal(t, StateSeatsPending, sess.State)
	assert.Equal(t, uint64(3), sess.ShowID)
	assert.Equal(t, []string{"AA01", "AA02"}, sess.Seats)
	assert.Equal(t, uint32(240), sess.Total)
	assert.Zero(t, sess.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingSessionIsNotFound(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb, "checkout", time.Minute)

	mock.ExpectGet("checkout:deadbeef").RedisNil()

	sess, err := s.Get(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, sess)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoundTrip(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb, "checkout", time.Minute)

	stored := Session{
		State:     StateSeatsPending,
		ShowID:    3,
		Seats:     []string{"AA01"},
		Total:     120,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	mock.ExpectGet("checkout:abc123").SetVal(string(raw))

	sess, err := s.Get(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", sess.Token)
	assert.Equal(t, StateSeatsPending, sess.State)
	assert.Equal(t, uint64(3), sess.ShowID)
	assert.Equal(t, []string{"AA01"}, sess.Seats)
	assert.Equal(t, uint32(120), sess.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateMovesToPaymentPending(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb, "checkout", time.Minute)

	sess := &Session{
		Token:  "abc123",
		State:  StateSeatsPending,
		ShowID: 3,
		Seats:  []string{"AA01"},
		Total:  120,
	}
	mock.Regexp().ExpectSet(`checkout:abc123`, `\{.*"state":"PAYMENT_PENDING".*"user_id":7.*\}`, time.Minute).
		SetVal("OK")

	err := s.Authenticate(context.Background(), sess, 7)
	require.NoError(t, err)
	assert.Equal(t, StatePaymentPending, sess.State)
	assert.Equal(t, uint64(7), sess.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscard(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb, "checkout", time.Minute)

	mock.ExpectDel("checkout:abc123").SetVal(1)
	assert.NoError(t, s.Discard(context.Background(), "abc123"))

	// Discarding an already expired session is still fine.
	mock.ExpectDel("checkout:gone").SetVal(0)
	assert.NoError(t, s.Discard(context.Background(), "gone"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreDefaults(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	s := NewStore(rdb, "", 0)
	assert.Equal(t, 15*time.Minute, s.TTL())
}
