// Package checkout tracks a user's progress from seat selection to
// payment as an explicit, server-side session. Sessions live in Redis
// under an opaque token with a TTL; nothing is written to the primary
// database until the booking commit, so an abandoned session simply
// expires with no side effects.
//
// The state machine is:
//
//	Idle -> SeatsPending -> PaymentPending -> Committed
//
// Idle is the absence of a session, Committed is its deletion after a
// successful commit. Only the two intermediate states are stored.
package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session states persisted in Redis.
const (
	StateSeatsPending   = "SEATS_PENDING"
	StatePaymentPending = "PAYMENT_PENDING"
)

// ErrNotFound is returned when no session exists for a token, either
// because it never existed, was discarded, or its TTL lapsed.
var ErrNotFound = errors.New("checkout session not found")

// ErrNoSeats is returned when a selection names no seats.
var ErrNoSeats = errors.New("no seats selected")

// ErrNoTotal is returned when a selection carries no positive total.
var ErrNoTotal = errors.New("missing or invalid total")

// Session is the per-user checkout state threaded between requests.
// It records the pending seat selection and total for one show, and
// the user once they have authenticated.
type Session struct {
	Token     string    `json:"-"`
	State     string    `json:"state"`
	ShowID    uint64    `json:"show_id"`
	Seats     []string  `json:"seats"`
	Total     uint32    `json:"total"`
	UserID    uint64    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists checkout sessions in Redis with a TTL. The zero
// value is not usable; construct with NewStore.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewStore returns a Store writing under the given key prefix with the
// given TTL. A ttl of zero falls back to 15 minutes.
func NewStore(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "checkout"
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Begin validates a seat selection and stores a new SeatsPending
// session, returning it with a fresh token. An empty seat set returns
// ErrNoSeats and a non-positive total returns ErrNoTotal; in both
// cases nothing is stored.
func (s *Store) Begin(ctx context.Context, showID uint64, seats []string, total uint32) (*Session, error) {
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}
	if total == 0 {
		return nil, ErrNoTotal
	}
	token, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		Token:     token,
		State:     StateSeatsPending,
		ShowID:    showID,
		Seats:     seats,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads the session for a token. Missing or expired sessions
// return ErrNotFound.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	return &sess, nil
}

// Authenticate moves a session to PaymentPending for the given user
// and re-saves it, renewing the TTL. Calling it on a session that is
// already PaymentPending for the same user is a no-op resume after a
// login interruption.
func (s *Store) Authenticate(ctx context.Context, sess *Session, userID uint64) error {
	sess.UserID = userID
	sess.State = StatePaymentPending
	return s.save(ctx, sess)
}

// Discard removes a session. Removing an absent session is not an
// error; abandonment and TTL expiry race with explicit discards.
func (s *Store) Discard(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}

// TTL exposes the configured session lifetime for response payloads.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(sess.Token), string(raw), s.ttl).Err()
}

func (s *Store) key(token string) string {
	return fmt.Sprintf("%s:%s", s.prefix, token)
}

// randomToken returns n bytes of cryptographically secure randomness
// as a hex string.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
