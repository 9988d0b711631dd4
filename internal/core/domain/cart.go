package domain

import "github.com/shopspring/decimal"

// A LineItem is a product snapshot taken when it was put into the cart.
type LineItem struct {
	Product
	Quantity int
}

// Subtotal returns current price multiplied by quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Current.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// A Cart is an immutable snapshot of the cart line items.
type Cart struct {
	Items []LineItem
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// Status reports the outcome of a cart mutation.
type Status int

const (
	StatusUnchanged Status = iota
	StatusUpdated
	// StatusStockExceeded means the requested quantity was clamped to the
	// stock. The cart is updated anyway.
	StatusStockExceeded
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusUpdated:
		return "updated"
	case StatusStockExceeded:
		return "stock_exceeded"
	}
	return "unknown"
}
