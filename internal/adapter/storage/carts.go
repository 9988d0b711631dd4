package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var _ port.RemoteCartStorage = (*CartsRepository)(nil)

// A CartsRepository keeps one cart record per user.
type CartsRepository struct {
	sqldb sqldb
	now   func() time.Time
}

func NewCartsRepository(sqldb sqldb) CartsRepository {
	return CartsRepository{sqldb: sqldb, now: time.Now}
}

func (r CartsRepository) ReadCart(
	ctx context.Context, userID string,
) (port.RemoteCart, error) {
	const op = "CartsRepository.ReadCart"

	if err := ctx.Err(); err != nil {
		return port.RemoteCart{}, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return port.RemoteCart{}, fmt.Errorf("%s: invalid user id: %w", op, err)
	}

	query := `
		SELECT cart_items, updated_at
		FROM carts
		WHERE user_id = $1;`

	var (
		data      []byte
		updatedAt time.Time
	)
	err = r.sqldb.QueryRowContext(ctx, query, uid).Scan(&data, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return port.RemoteCart{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return port.RemoteCart{}, fmt.Errorf("%s: %w", op, err)
	}

	items, err := decodeLineItems(data)
	if err != nil {
		return port.RemoteCart{}, fmt.Errorf("%s: %w", op, err)
	}

	return port.RemoteCart{Items: items, UpdatedAt: updatedAt}, nil
}

func (r CartsRepository) UpsertCart(
	ctx context.Context, userID string, items []domain.LineItem,
) error {
	const op = "CartsRepository.UpsertCart"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%s: invalid user id: %w", op, err)
	}

	data, err := encodeLineItems(items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO carts (user_id, cart_items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			cart_items = EXCLUDED.cart_items,
			updated_at = EXCLUDED.updated_at;`

	_, err = r.sqldb.ExecContext(ctx, query, uid, string(data), r.now().UTC())
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}
