// Package seatgrid materializes the fixed seat grid of a show from a
// versioned layout configuration. The grid is generated exactly once,
// synchronously, inside the create-show transaction; generating it a
// second time for the same show is a caller error and trips the
// (show_id, seat_number) unique key rather than being absorbed here.
package seatgrid

import (
	"fmt"

	"github.com/cinebooker/cinebooker/internal/repository"
)

// Class describes one seat class of a layout: its row labels, the
// number of columns per row and the per-seat price.
type Class struct {
	Name  string
	Rows  []string
	Cols  int
	Price uint32
}

// Layout is a versioned seat-class configuration. Version identifies
// the configuration a show's grid was generated from; changing the
// layout means bumping the version, never mutating an existing one.
type Layout struct {
	Version int
	Classes []Class
}

// DefaultLayout returns layout version 1: a Balcony block of 4 rows of
// 14 seats and a First Class block of 6 rows of 24 seats, 200 seats
// total.
func DefaultLayout() Layout {
	return Layout{
		Version: 1,
		Classes: []Class{
			{Name: "Balcony", Rows: []string{"AA", "AB", "AC", "AD"}, Cols: 14, Price: 120},
			{Name: "First Class", Rows: []string{"A", "B", "C", "D", "E", "F"}, Cols: 24, Price: 100},
		},
	}
}

// SeatCount returns the total number of seats the layout produces.
func (l Layout) SeatCount() int {
	n := 0
	for _, c := range l.Classes {
		n += len(c.Rows) * c.Cols
	}
	return n
}

// Build produces the full seat grid for a show in deterministic order:
// classes in layout order, rows in declared order, columns ascending.
// Every seat is unbooked and numbered rowLabel + zero-padded two-digit
// column ("AA01", "F24").
func Build(showID uint64, l Layout) []repository.Seat {
	seats := make([]repository.Seat, 0, l.SeatCount())
	for _, class := range l.Classes {
		for _, row := range class.Rows {
			for col := 1; col <= class.Cols; col++ {
				seats = append(seats, repository.Seat{
					ShowID:     showID,
					SeatNumber: fmt.Sprintf("%s%02d", row, col),
					SeatClass:  class.Name,
					Price:      class.Price,
					IsBooked:   false,
				})
			}
		}
	}
	return seats
}
