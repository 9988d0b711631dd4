package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/syndtr/goleveldb/leveldb"
)

var _ port.LocalCartStorage = (*LocalStore)(nil)

// A LocalStore keeps device scoped records in LevelDB.
type LocalStore struct {
	db *leveldb.DB
}

func NewLocalStore(path string) (LocalStore, error) {
	const op = "NewLocalStore"

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return LocalStore{}, fmt.Errorf("%s: %w", op, err)
	}
	return LocalStore{db}, nil
}

func NewLocalStoreFromDB(db *leveldb.DB) LocalStore {
	return LocalStore{db}
}

func (s LocalStore) Close() {
	const op = "LocalStore.Close"
	log := slog.With("op", op)

	log.Info("closing local store...")
	if err := s.db.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("local store is closed")
}

func (s LocalStore) ReadLocalCart(
	ctx context.Context, deviceID string,
) ([]domain.LineItem, error) {
	const op = "LocalStore.ReadLocalCart"

	data, err := s.get(ctx, cartKey(deviceID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := decodeLineItems(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func (s LocalStore) WriteLocalCart(
	ctx context.Context, deviceID string, items []domain.LineItem,
) error {
	const op = "LocalStore.WriteLocalCart"

	data, err := encodeLineItems(items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.put(ctx, cartKey(deviceID), data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s LocalStore) DeleteLocalCart(ctx context.Context, deviceID string) error {
	const op = "LocalStore.DeleteLocalCart"

	if err := s.delete(ctx, cartKey(deviceID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s LocalStore) ReadFallbackMark(
	ctx context.Context, deviceID string,
) (port.FallbackMark, error) {
	const op = "LocalStore.ReadFallbackMark"

	data, err := s.get(ctx, markKey(deviceID))
	if err != nil {
		return port.FallbackMark{}, fmt.Errorf("%s: %w", op, err)
	}

	m, err := decodeFallbackMark(data)
	if err != nil {
		return port.FallbackMark{}, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func (s LocalStore) WriteFallbackMark(
	ctx context.Context, deviceID string, m port.FallbackMark,
) error {
	const op = "LocalStore.WriteFallbackMark"

	data, err := encodeFallbackMark(m)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.put(ctx, markKey(deviceID), data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s LocalStore) DeleteFallbackMark(ctx context.Context, deviceID string) error {
	const op = "LocalStore.DeleteFallbackMark"

	if err := s.delete(ctx, markKey(deviceID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s LocalStore) get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s LocalStore) put(ctx context.Context, key, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Put(key, data, nil)
}

func (s LocalStore) delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Delete(key, nil)
}

func cartKey(deviceID string) []byte {
	return []byte("cart:" + deviceID)
}

func markKey(deviceID string) []byte {
	return []byte("cart-fallback:" + deviceID)
}
