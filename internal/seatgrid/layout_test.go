package seatgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayoutSeatCount(t *testing.T) {
	l := DefaultLayout()
	// 4 balcony rows of 14 plus 6 first class rows of 24.
	assert.Equal(t, 4*14+6*24, l.SeatCount())
	assert.Equal(t, 200, l.SeatCount())
}

func TestBuildProducesFullUniqueGrid(t *testing.T) {
	l := DefaultLayout()
	seats := Build(42, l)
	require.Len(t, seats, l.SeatCount())

	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		assert.Equal(t, uint64(42), s.ShowID)
		assert.False(t, s.IsBooked)
		_, dup := seen[s.SeatNumber]
		assert.False(t, dup, "duplicate seat number %s", s.SeatNumber)
		seen[s.SeatNumber] = struct{}{}
	}
}

func TestBuildOrderAndNumbering(t *testing.T) {
	seats := Build(1, DefaultLayout())

	// Balcony comes first in grid order, columns zero padded.
	assert.Equal(t, "AA01", seats[0].SeatNumber)
	assert.Equal(t, "Balcony", seats[0].SeatClass)
	assert.Equal(t, "AA14", seats[13].SeatNumber)
	assert.Equal(t, "AB01", seats[14].SeatNumber)

	// First Class starts right after the 56 balcony seats.
	assert.Equal(t, "A01", seats[56].SeatNumber)
	assert.Equal(t, "First Class", seats[56].SeatClass)

	last := seats[len(seats)-1]
	assert.Equal(t, "F24", last.SeatNumber)
	assert.Equal(t, "First Class", last.SeatClass)
}

func TestBuildPricesPerClass(t *testing.T) {
	for _, s := range Build(7, DefaultLayout()) {
		switch s.SeatClass {
		case "Balcony":
			assert.Equal(t, uint32(120), s.Price, "seat %s", s.SeatNumber)
		case "First Class":
			assert.Equal(t, uint32(100), s.Price, "seat %s", s.SeatNumber)
		default:
			t.Fatalf("unexpected seat class %q", s.SeatClass)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, Build(9, l), Build(9, l))
}
