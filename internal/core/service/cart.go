package service

import (
	"slices"
	"sync"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/shopspring/decimal"
)

// A CartStore holds the authoritative cart of one session.
//
// Quantities are kept within [1, stock] of the line item snapshot.
// Exceeding requests are clamped, never rejected.
type CartStore struct {
	mu     sync.Mutex
	items  []domain.LineItem
	subs   map[int]func(domain.Cart)
	nextID int
}

func NewCartStore() *CartStore {
	return &CartStore{subs: make(map[int]func(domain.Cart))}
}

// Subscribe registers fn to be called with the new cart after every change.
func (s *CartStore) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *CartStore) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *CartStore) Total() decimal.Decimal {
	return s.Cart().Total()
}

func (s *CartStore) ItemCount() int {
	return s.Cart().ItemCount()
}

// AddItem puts quantity of product into the cart, merging with
// the existing line item. A quantity below 1 is treated as 1.
//
// A merge replaces the stored snapshot with product, so the line
// takes the price and stock of this add.
func (s *CartStore) AddItem(
	product domain.Product, quantity int,
) (domain.Cart, domain.Status) {
	if quantity < 1 {
		quantity = 1
	}

	return s.mutate(func(items []domain.LineItem) ([]domain.LineItem, domain.Status) {
		idx := indexOf(items, product.ID)
		if idx == -1 {
			if product.Stock < 1 {
				return items, domain.StatusStockExceeded
			}
			status := domain.StatusUpdated
			if quantity > product.Stock {
				quantity = product.Stock
				status = domain.StatusStockExceeded
			}
			item := domain.LineItem{Product: product, Quantity: quantity}
			return append(items, item), status
		}

		// the fresh snapshot replaces the stored one,
		// so the quantity bound follows the stock seen on this add
		newQuantity := items[idx].Quantity + quantity
		status := domain.StatusUpdated
		if newQuantity > product.Stock {
			newQuantity = product.Stock
			status = domain.StatusStockExceeded
		}
		if newQuantity < 1 {
			return slices.Delete(items, idx, idx+1), status
		}
		items[idx] = domain.LineItem{Product: product, Quantity: newQuantity}
		return items, status
	})
}

func (s *CartStore) RemoveItem(productID string) domain.Cart {
	c, _ := s.removeItem(productID)
	return c
}

func (s *CartStore) removeItem(productID string) (domain.Cart, domain.Status) {
	return s.mutate(func(items []domain.LineItem) ([]domain.LineItem, domain.Status) {
		idx := indexOf(items, productID)
		if idx == -1 {
			return items, domain.StatusUnchanged
		}
		return slices.Delete(items, idx, idx+1), domain.StatusUpdated
	})
}

// UpdateQuantity sets the quantity of the line item. A quantity below 1
// removes the item.
func (s *CartStore) UpdateQuantity(
	productID string, quantity int,
) (domain.Cart, domain.Status) {
	if quantity < 1 {
		return s.removeItem(productID)
	}

	return s.mutate(func(items []domain.LineItem) ([]domain.LineItem, domain.Status) {
		idx := indexOf(items, productID)
		if idx == -1 {
			return items, domain.StatusUnchanged
		}
		status := domain.StatusUpdated
		if quantity > items[idx].Stock {
			quantity = items[idx].Stock
			status = domain.StatusStockExceeded
		}
		items[idx].Quantity = quantity
		return items, status
	})
}

func (s *CartStore) Clear() domain.Cart {
	c, _ := s.mutate(func([]domain.LineItem) ([]domain.LineItem, domain.Status) {
		return nil, domain.StatusUpdated
	})
	return c
}

// Subtract takes the ordered quantities out of the cart. Quantity added
// to a line after it was ordered stays in the cart.
func (s *CartStore) Subtract(ordered []domain.LineItem) domain.Cart {
	c, _ := s.mutate(func(items []domain.LineItem) ([]domain.LineItem, domain.Status) {
		for _, o := range ordered {
			idx := indexOf(items, o.ID)
			if idx == -1 {
				continue
			}
			items[idx].Quantity -= o.Quantity
			if items[idx].Quantity < 1 {
				items = slices.Delete(items, idx, idx+1)
			}
		}
		return items, domain.StatusUpdated
	})
	return c
}

// Replace swaps the whole item list. Subscribers are notified.
func (s *CartStore) Replace(items []domain.LineItem) domain.Cart {
	c, _ := s.mutate(func([]domain.LineItem) ([]domain.LineItem, domain.Status) {
		return normalize(items), domain.StatusUpdated
	})
	return c
}

func (s *CartStore) mutate(
	fn func([]domain.LineItem) ([]domain.LineItem, domain.Status),
) (domain.Cart, domain.Status) {
	s.mu.Lock()
	items, status := fn(slices.Clone(s.items))
	if status == domain.StatusUnchanged {
		c := s.snapshot()
		s.mu.Unlock()
		return c, status
	}
	s.items = items
	c := s.snapshot()
	subs := make([]func(domain.Cart), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
	return c, status
}

func (s *CartStore) snapshot() domain.Cart {
	return domain.Cart{Items: slices.Clone(s.items)}
}

func indexOf(items []domain.LineItem, productID string) int {
	return slices.IndexFunc(items, func(item domain.LineItem) bool {
		return item.ID == productID
	})
}

// normalize enforces the cart invariants on items coming from storage:
// one line per product and quantity within [1, stock].
func normalize(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity > item.Stock {
			item.Quantity = item.Stock
		}
		if item.Quantity < 1 {
			continue
		}
		if idx := indexOf(out, item.ID); idx != -1 {
			out[idx] = item
			continue
		}
		out = append(out, item)
	}
	return out
}
