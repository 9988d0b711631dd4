package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/niksmo/shopcart/pkg/retry"
)

// A Persister loads and saves the cart of one device.
//
// Authenticated carts live in the remote store, anonymous carts
// in the local one. The local store is also the fallback for any
// remote failure, so loading and saving never fail.
type Persister struct {
	deviceID string
	remote   port.RemoteCartStorage
	local    port.LocalCartStorage
	retryCfg retry.RetryConfig
	now      func() time.Time
}

type PersisterOpt func(*Persister)

// RemoteAttemptsOpt sets how many times a remote call is tried
// before falling back to the local store.
func RemoteAttemptsOpt(n int) PersisterOpt {
	return func(p *Persister) {
		p.retryCfg.MaxAttempts = n
	}
}

func ClockOpt(now func() time.Time) PersisterOpt {
	return func(p *Persister) {
		p.now = now
	}
}

func NewPersister(
	deviceID string,
	remote port.RemoteCartStorage,
	local port.LocalCartStorage,
	opts ...PersisterOpt,
) *Persister {
	p := &Persister{
		deviceID: deviceID,
		remote:   remote,
		local:    local,
		retryCfg: retry.RetryConfig{
			MaxAttempts: 1,
			Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
			ShouldRetry: isRetryable,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load returns the saved items for the identity context. An anonymous
// load never sees a user cart kept locally as the fallback.
func (p *Persister) Load(ctx context.Context, user *domain.User) []domain.LineItem {
	const op = "Persister.Load"
	log := slog.With("op", op, "deviceID", p.deviceID)

	if user == nil {
		if p.hasFallbackMark(ctx) {
			log.Info("local record holds a user cart, starting empty")
			return nil
		}
		return p.loadLocal(ctx)
	}

	remoteCart, err := retry.DoWithResult(ctx, p.retryCfg, func() (port.RemoteCart, error) {
		return p.remote.ReadCart(ctx, user.ID)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to load remote cart, using local", "err", err)
		}
		return p.loadLocal(ctx)
	}

	if p.localIsNewer(ctx, user.ID, remoteCart.UpdatedAt) {
		log.Info("local fallback copy is newer than remote cart")
		return p.loadLocal(ctx)
	}

	return remoteCart.Items
}

// Save writes items for the identity context. A failed remote write
// is substituted by a local one.
func (p *Persister) Save(
	ctx context.Context, user *domain.User, items []domain.LineItem,
) {
	const op = "Persister.Save"
	log := slog.With("op", op, "deviceID", p.deviceID)

	if user == nil {
		if p.saveLocal(ctx, items) {
			p.deleteFallbackMark(ctx)
		}
		return
	}

	err := p.tryRemote(ctx, user.ID, items)
	if err == nil {
		p.dropFallbackMark(ctx, user.ID)
		return
	}

	log.Error("failed to save remote cart, using local", "err", err)
	p.onRemoteFailure(ctx, user.ID, items)
}

func (p *Persister) tryRemote(
	ctx context.Context, userID string, items []domain.LineItem,
) error {
	const op = "Persister.tryRemote"

	err := retry.Do(ctx, p.retryCfg, func() error {
		return p.remote.UpsertCart(ctx, userID, items)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Persister) onRemoteFailure(
	ctx context.Context, userID string, items []domain.LineItem,
) {
	const op = "Persister.onRemoteFailure"
	log := slog.With("op", op, "deviceID", p.deviceID)

	if !p.saveLocal(ctx, items) {
		return
	}

	mark := port.FallbackMark{UserID: userID, SavedAt: p.now()}
	if err := p.local.WriteFallbackMark(ctx, p.deviceID, mark); err != nil {
		log.Error("failed to write fallback mark", "err", err)
	}
}

func (p *Persister) loadLocal(ctx context.Context) []domain.LineItem {
	const op = "Persister.loadLocal"
	log := slog.With("op", op, "deviceID", p.deviceID)

	items, err := p.local.ReadLocalCart(ctx, p.deviceID)
	switch {
	case err == nil:
		return items
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case errors.Is(err, domain.ErrMalformedRecord):
		log.Warn("discarding malformed local cart", "err", err)
		if err := p.local.DeleteLocalCart(ctx, p.deviceID); err != nil {
			log.Error("failed to discard local cart", "err", err)
		}
		return nil
	default:
		log.Error("failed to load local cart", "err", err)
		return nil
	}
}

func (p *Persister) saveLocal(ctx context.Context, items []domain.LineItem) bool {
	const op = "Persister.saveLocal"
	log := slog.With("op", op, "deviceID", p.deviceID)

	err := p.local.WriteLocalCart(ctx, p.deviceID, items)
	if err != nil {
		log.Error("failed to save local cart", "err", err)
		return false
	}
	return true
}

// localIsNewer reports whether a remote write for the user failed
// after the remote record was last updated.
func (p *Persister) localIsNewer(
	ctx context.Context, userID string, remoteUpdatedAt time.Time,
) bool {
	mark, err := p.local.ReadFallbackMark(ctx, p.deviceID)
	if err != nil {
		return false
	}
	return mark.UserID == userID && mark.SavedAt.After(remoteUpdatedAt)
}

func (p *Persister) dropFallbackMark(ctx context.Context, userID string) {
	mark, err := p.local.ReadFallbackMark(ctx, p.deviceID)
	if err != nil || mark.UserID != userID {
		return
	}
	p.deleteFallbackMark(ctx)
}

// deleteFallbackMark is called once the local record stops holding
// a user cart.
func (p *Persister) deleteFallbackMark(ctx context.Context) {
	const op = "Persister.deleteFallbackMark"
	log := slog.With("op", op, "deviceID", p.deviceID)

	err := p.local.DeleteFallbackMark(ctx, p.deviceID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error("failed to delete fallback mark", "err", err)
	}
}

func (p *Persister) hasFallbackMark(ctx context.Context) bool {
	_, err := p.local.ReadFallbackMark(ctx, p.deviceID)
	return err == nil
}

func isRetryable(err error) bool {
	return !errors.Is(err, domain.ErrNotFound) &&
		!errors.Is(err, domain.ErrMalformedRecord) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
