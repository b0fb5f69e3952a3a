package menu

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Lookup errors for the menu catalog.
var (
	ErrNotFound     = errors.New("menu item not found")
	ErrDishNotFound = errors.New("dish not found")
	ErrDuplicate    = errors.New("menu item already exists")
)

// Item is a catalog entry offered to customers. ImagePath is a file name
// relative to the configured image directory.
type Item struct {
	Name        string
	Type        string
	Description string
	Price       decimal.Decimal
	ImagePath   string
	Available   bool
}

// Dish mirrors an Item in the dishes collection; it is the canonical holder
// of the image path.
type Dish struct {
	Name        string
	Type        string
	Description string
	Price       decimal.Decimal
	ImagePath   string
}

// ItemStatus is an Item annotated with its promotion flags.
type ItemStatus struct {
	Item
	IsPopular      bool
	IsTodaySpecial bool
}

// Special is a today's-special snapshot of a menu item.
type Special struct {
	Item
	MarkedAt time.Time
}

// Repository defines catalog operations. Add and Delete keep the dishes
// collection in sync with the menu.
type Repository interface {
	ListAvailable(ctx context.Context) ([]Item, error)
	ListWithStatus(ctx context.Context) ([]ItemStatus, error)
	Add(ctx context.Context, item Item) error
	BulkUpdate(ctx context.Context, items []Item) error
	Delete(ctx context.Context, name string) error
	FindDish(ctx context.Context, name string) (*Dish, error)

	// ToggleSpecial and TogglePopular flip the respective flag for a menu
	// item: marked when absent, removed when present. The returned bool
	// reports whether the item is marked after the call.
	ToggleSpecial(ctx context.Context, name string) (bool, error)
	TogglePopular(ctx context.Context, name string) (bool, error)
}
