package handler // handler package contains checkout and booking handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinebooker/cinebooker/internal/booking"
	"github.com/cinebooker/cinebooker/internal/checkout"
	"github.com/cinebooker/cinebooker/internal/queue"
	"github.com/cinebooker/cinebooker/internal/repository"
	"github.com/cinebooker/cinebooker/internal/ticket"
)

// ConfirmationNotifier delivers booking confirmations out of band. A
// lost notification never fails the booking it reports on.
type ConfirmationNotifier interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent)
}

// CheckoutHandler drives the checkout flow: seat selection opens a
// session, payment authenticates and commits it, and the remaining
// endpoints expose the resulting bookings and receipts.
type CheckoutHandler struct {
	Sessions    *checkout.Store
	Committer   *booking.Committer
	ShowRepo    *repository.ShowRepo
	BookingRepo *repository.BookingRepo
	Notifier    ConfirmationNotifier
}

// NewCheckoutHandler constructs a CheckoutHandler and panics on nil
// dependencies.
func NewCheckoutHandler(sessions *checkout.Store, committer *booking.Committer, showRepo *repository.ShowRepo, bookingRepo *repository.BookingRepo, notifier ConfirmationNotifier) *CheckoutHandler {
	if sessions == nil || committer == nil || showRepo == nil || bookingRepo == nil || notifier == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{
		Sessions:    sessions,
		Committer:   committer,
		ShowRepo:    showRepo,
		BookingRepo: bookingRepo,
		Notifier:    notifier,
	}
}

type selectSeatsReq struct {
	ShowID uint64   `json:"show_id"`
	Seats  []string `json:"seats"`
	Total  *uint32  `json:"total"`
}

// SelectSeats handles POST /v1/checkout/seats. It is deliberately
// public: a guest can pick seats first and log in at payment time, as
// nothing is reserved yet. A valid selection opens a SEATS_PENDING
// session and returns its token; the seats stay available to everyone
// else until a commit wins them.
func (h *CheckoutHandler) SelectSeats(c echo.Context) error {
	var body selectSeatsReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats selected"})
	}
	if body.Total == nil || *body.Total == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing or invalid total"})
	}
	if body.ShowID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_id is required"})
	}
	ctx := c.Request().Context()
	if _, err := h.ShowRepo.GetByID(ctx, body.ShowID); err != nil {
		if err == repository.ErrShowNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	sess, err := h.Sessions.Begin(ctx, body.ShowID, body.Seats, *body.Total)
	if err != nil {
		switch err {
		case checkout.ErrNoSeats:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats selected"})
		case checkout.ErrNoTotal:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing or invalid total"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open checkout session"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"checkout_token": sess.Token,
		"state":          sess.State,
		"show_id":        sess.ShowID,
		"seats":          sess.Seats,
		"total":          sess.Total,
		"expires_in":     int(h.Sessions.TTL().Seconds()),
	})
}

type payReq struct {
	CheckoutToken string `json:"checkout_token"`
	PaymentMethod string `json:"payment_method"`
}

// Pay handles POST /v1/checkout/pay (JWT required). It resumes the
// checkout session, binds it to the authenticated user and runs the
// atomic booking commit.
//
// Outcome mapping: a missing payment method aborts the checkout (the
// session is discarded, matching the select-again flow a client is
// pushed into); a seat conflict discards the session too, since the
// stale selection can never succeed; transient failures keep the
// session alive so the user can retry payment within the TTL.
func (h *CheckoutHandler) Pay(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}
	var body payReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.CheckoutToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "checkout_token is required"})
	}

	ctx := c.Request().Context()
	sess, err := h.Sessions.Get(ctx, body.CheckoutToken)
	if err != nil {
		if errors.Is(err, checkout.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "checkout session expired or not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load checkout session"})
	}
	if body.PaymentMethod == "" {
		_ = h.Sessions.Discard(ctx, sess.Token)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment method is required"})
	}
	if err := h.Sessions.Authenticate(ctx, sess, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update checkout session"})
	}

	res, err := h.Committer.Commit(ctx, userID, sess.ShowID, sess.Seats, body.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrSeatConflict):
			_ = h.Sessions.Discard(ctx, sess.Token)
			return c.JSON(http.StatusConflict, echo.Map{"error": "one or more seats were just booked, please select again"})
		case errors.Is(err, booking.ErrSeatUnknown):
			_ = h.Sessions.Discard(ctx, sess.Token)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "selected seats do not exist for this show"})
		case errors.Is(err, repository.ErrShowNotFound):
			_ = h.Sessions.Discard(ctx, sess.Token)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, booking.ErrNoSeats):
			_ = h.Sessions.Discard(ctx, sess.Token)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats selected"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed, please try again"})
	}
	_ = h.Sessions.Discard(ctx, sess.Token)

	// Notify out of band. A lost event never fails the booking.
	go h.notifyConfirmed(userID, sess.ShowID, body.PaymentMethod, res)

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":     res.BookingID,
		"show_id":        sess.ShowID,
		"seats":          res.Seats,
		"total_amount":   res.Total,
		"payment_method": body.PaymentMethod,
	})
}

// notifyConfirmed hands the commit result to the notifier. Runs
// detached from the request, so it uses its own short-lived context.
func (h *CheckoutHandler) notifyConfirmed(userID, showID uint64, method string, res *booking.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h.Notifier.BookingConfirmed(ctx, queue.BookingConfirmedEvent{
		BookingID:     res.BookingID,
		UserID:        userID,
		ShowID:        showID,
		Seats:         res.Seats,
		TotalAmount:   res.Total,
		PaymentMethod: method,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

// MyBookings handles GET /v1/bookings and lists the authenticated
// user's bookings, newest first.
func (h *CheckoutHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}
	items, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:id. Ownership is enforced in
// the query, so another user's booking id simply reads as missing.
func (h *CheckoutHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.BookingRepo.GetByIDForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Receipt handles GET /v1/bookings/:id/receipt and streams the ticket
// QR image for one of the user's bookings.
func (h *CheckoutHandler) Receipt(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.BookingRepo.GetByIDForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	r := ticket.Receipt{BookingID: detail.ID, Seats: detail.Seats, Total: detail.TotalAmount}
	c.Response().Header().Set(echo.HeaderContentType, "image/jpeg")
	c.Response().WriteHeader(http.StatusOK)
	return r.WriteQR(c.Response())
}
