package order

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Pricing input validation errors.
var (
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativePrice    = errors.New("unit price must not be negative")
)

// LineTotal computes quantity * unitPrice. A zero quantity yields zero;
// negative inputs are rejected. This is the only place a line total may be
// derived; totals are never accepted verbatim from clients.
func LineTotal(quantity int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if quantity < 0 {
		return decimal.Zero, ErrNegativeQuantity
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// OrderTotal sums the line totals of the given lines, rounded to 2 decimal
// places. An empty slice yields zero.
func OrderTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return total.Round(2)
}

// priceLines validates the requested lines and derives each TotalPrice.
// Quantities must be positive on incoming orders even though LineTotal itself
// tolerates zero.
func priceLines(items []LineInput) ([]Line, error) {
	lines := make([]Line, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{MenuItem: item.MenuItem}
		}

		total, err := LineTotal(item.Quantity, item.IndividualPrice)
		if err != nil {
			if errors.Is(err, ErrNegativePrice) {
				return nil, &NegativePriceError{MenuItem: item.MenuItem}
			}
			return nil, err
		}

		lines[i] = Line{
			MenuItem:        item.MenuItem,
			Quantity:        item.Quantity,
			IndividualPrice: item.IndividualPrice,
			TotalPrice:      total,
		}
	}
	return lines, nil
}
