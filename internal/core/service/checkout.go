package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/niksmo/shopcart/internal/core/domain"
)

// Checkout turns the cart of an authenticated device into a pending
// order and takes the ordered items out of the cart.
func (s *Service) Checkout(
	ctx context.Context, deviceID string, address domain.Address,
) (domain.Order, error) {
	const op = "Service.Checkout"
	log := slog.With("op", op, "deviceID", deviceID)

	sess, user, err := s.authenticated(ctx, deviceID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if !validAddress(address) {
		return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidAddress)
	}

	c := sess.Store().Cart()
	if c.Empty() {
		return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrEmptyCart)
	}

	now := s.now().UTC()
	o := domain.Order{
		ID:              s.newID(),
		UserID:          user.ID,
		Items:           c.Items,
		Total:           c.Total(),
		Status:          domain.OrderStatusPending,
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.deps.Orders.CreateOrder(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	sess.Store().Subtract(o.Items)
	log.Info("order placed", "orderID", o.ID, "total", o.Total.String())
	return o, nil
}

func (s *Service) Orders(ctx context.Context, deviceID string) ([]domain.Order, error) {
	const op = "Service.Orders"

	_, user, err := s.authenticated(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.deps.Orders.ReadOrders(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *Service) Order(
	ctx context.Context, deviceID, orderID string,
) (domain.Order, error) {
	const op = "Service.Order"

	_, user, err := s.authenticated(ctx, deviceID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	o, err := s.deps.Orders.ReadOrder(ctx, user.ID, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (s *Service) authenticated(
	ctx context.Context, deviceID string,
) (*Session, domain.User, error) {
	sess, err := s.Session(ctx, deviceID)
	if err != nil {
		return nil, domain.User{}, err
	}

	user := sess.User()
	if user == nil {
		return nil, domain.User{}, domain.ErrUnauthenticated
	}
	return sess, *user, nil
}

func validAddress(a domain.Address) bool {
	for _, v := range []string{a.Name, a.Street, a.City, a.ZipCode, a.Country} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
