package queue

// BookingConfirmedEvent is published when a booking is successfully
// committed. It carries enough information for downstream consumers to
// render a ticket or notify the customer without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID     uint64   `json:"booking_id"`
	UserID        uint64   `json:"user_id"`
	ShowID        uint64   `json:"show_id"`
	MovieTitle    string   `json:"movie_title"`
	TheatreName   string   `json:"theatre_name"`
	City          string   `json:"city"`
	ShowTime      string   `json:"show_time"`
	Seats         []string `json:"seats"`
	TotalAmount   uint32   `json:"total_amount"`
	PaymentMethod string   `json:"payment_method"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
