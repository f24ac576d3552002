package queue_publisher

import (
	"context"

	q "github.com/cinebooker/cinebooker/internal/queue"
	"github.com/cinebooker/cinebooker/internal/repository"
)

// BookingNotifier enriches confirmed bookings with their show listing
// and hands them to the queue. It backs the checkout handler's
// out-of-band notification path.
type BookingNotifier struct {
	shows *repository.ShowRepo
}

// NewBookingNotifier returns a notifier reading show details from the
// given repo.
func NewBookingNotifier(shows *repository.ShowRepo) *BookingNotifier {
	return &BookingNotifier{shows: shows}
}

// BookingConfirmed publishes the event, best effort. A failed listing
// lookup drops the enrichment but not the event; a failed publish is
// logged by the queue layer and otherwise ignored.
func (n *BookingNotifier) BookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) {
	if listing, err := n.shows.GetListing(ctx, ev.ShowID); err == nil {
		ev.MovieTitle = listing.MovieTitle
		ev.TheatreName = listing.TheatreName
		ev.City = listing.City
		ev.ShowTime = listing.ShowTime
	}
	_ = PublishBookingConfirmed(ctx, ev)
}
