package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var _ port.OrdersStorage = (*OrdersRepository)(nil)

type OrdersRepository struct {
	sqldb sqldb
}

func NewOrdersRepository(sqldb sqldb) OrdersRepository {
	return OrdersRepository{sqldb}
}

const selectOrder = `
	SELECT
		id, user_id, items, total, status,
		shipping_address, tracking_number, created_at, updated_at
	FROM orders`

type scanner interface {
	Scan(dest ...any) error
}

func (r OrdersRepository) CreateOrder(ctx context.Context, o domain.Order) error {
	const op = "OrdersRepository.CreateOrder"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	itemsB, err := encodeLineItems(o.Items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	addressB, err := encodeAddress(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO orders (
			id, user_id, items, total, status,
			shipping_address, tracking_number, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err = r.sqldb.ExecContext(ctx, query,
		o.ID, o.UserID, string(itemsB), o.Total.String(), o.Status,
		string(addressB), nullString(o.TrackingNumber), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

func (r OrdersRepository) ReadOrders(
	ctx context.Context, userID string,
) (orders []domain.Order, readErr error) {
	const op = "OrdersRepository.ReadOrders"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := selectOrder + `
	WHERE user_id = $1
	ORDER BY created_at DESC;`

	rows, err := r.sqldb.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (r OrdersRepository) ReadOrder(
	ctx context.Context, userID, orderID string,
) (domain.Order, error) {
	const op = "OrdersRepository.ReadOrder"

	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := uuid.Parse(orderID); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	query := selectOrder + `
	WHERE user_id = $1 AND id = $2;`

	row := r.sqldb.QueryRowContext(ctx, query, userID, orderID)
	o, err := r.scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r OrdersRepository) scanOrder(s scanner) (domain.Order, error) {
	var (
		o        domain.Order
		itemsB   []byte
		addressB []byte
		tracking sql.NullString
	)
	err := s.Scan(
		&o.ID, &o.UserID, &itemsB, &o.Total, &o.Status,
		&addressB, &tracking, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	o.Items, err = decodeLineItems(itemsB)
	if err != nil {
		return domain.Order{}, err
	}

	o.ShippingAddress, err = decodeAddress(addressB)
	if err != nil {
		return domain.Order{}, err
	}

	o.TrackingNumber = tracking.String
	return o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
