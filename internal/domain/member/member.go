package member

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no member matches the given phone number.
var ErrNotFound = errors.New("phone number not found")

// Member identifies a registered guest by phone number. Screen selects the
// client screen the member is routed to.
type Member struct {
	Phone  string
	Screen int
}

// Repository provides member lookup.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (*Member, error)
}
