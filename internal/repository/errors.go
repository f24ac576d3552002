// Package repository defines error values that are reused across
// multiple repositories. These sentinels allow higher layers such as
// handlers to distinguish between different failure scenarios, e.g.
// ErrDuplicate signals that an insert collides with a uniqueness
// constraint (theatre name per city, show triple, seat number per show).
package repository

import (
	"errors"
	"strings"
)

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint. Handlers should translate this into an HTTP 409
// response.
var ErrDuplicate = errors.New("duplicate")

// isDuplicateKey reports whether a MySQL error is a duplicate-key
// violation (error 1062). The driver does not export a typed error
// for this, so repositories match on the error text.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "1062") || strings.Contains(s, "Duplicate entry")
}
