// Package ticket renders the confirmation artifact for a booking: a
// scannable QR image carrying the booking id, seat list and amount.
// No external verifier consumes the encoding, so the payload is a
// simple pipe-delimited string.
package ticket

import (
	"fmt"
	"io"
	"strings"

	"github.com/yeqown/go-qrcode"
)

// Receipt is the data embedded in a ticket QR code.
type Receipt struct {
	BookingID uint64
	Seats     []string
	Total     uint32
}

// Encode returns the text payload embedded in the QR image, e.g.
// "CINEBOOKER|booking=42|seats=AA01,AA02|total=240".
func (r Receipt) Encode() string {
	return fmt.Sprintf("CINEBOOKER|booking=%d|seats=%s|total=%d",
		r.BookingID, strings.Join(r.Seats, ","), r.Total)
}

// WriteQR streams the QR image (JPEG) for the receipt to w.
func (r Receipt) WriteQR(w io.Writer) error {
	qrc, err := qrcode.New(r.Encode())
	if err != nil {
		return fmt.Errorf("build qr: %w", err)
	}
	if err := qrc.SaveTo(w); err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	return nil
}

// SaveQR writes the QR image for the receipt to the given path.
func (r Receipt) SaveQR(path string) error {
	qrc, err := qrcode.New(r.Encode())
	if err != nil {
		return fmt.Errorf("build qr: %w", err)
	}
	if err := qrc.Save(path); err != nil {
		return fmt.Errorf("save qr: %w", err)
	}
	return nil
}
