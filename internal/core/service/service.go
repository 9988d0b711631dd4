package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var _ port.CartKeeper = (*Service)(nil)
var _ port.OrderPlacer = (*Service)(nil)

// Deps are the collaborators of [Service]. Events is optional.
type Deps struct {
	Remote   port.RemoteCartStorage
	Local    port.LocalCartStorage
	Catalog  port.ProductCatalog
	Orders   port.OrdersStorage
	Identity port.IdentityProvider
	Events   port.CartEventsProducer
}

// A Service keeps one cart session per device.
type Service struct {
	ctx           context.Context
	deps          Deps
	persisterOpts []PersisterOpt
	now           func() time.Time
	newID         func() string

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates the service. ctx bounds background saves.
func New(ctx context.Context, deps Deps, opts ...PersisterOpt) *Service {
	return &Service{
		ctx:           ctx,
		deps:          deps,
		persisterOpts: opts,
		now:           time.Now,
		newID:         uuid.NewString,
		sessions:      make(map[string]*Session),
	}
}

// Session returns the session of the device, opening it on first use.
// Sessions of different devices are opened concurrently.
func (s *Service) Session(ctx context.Context, deviceID string) (*Session, error) {
	const op = "Service.Session"

	if deviceID == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrEmptyDeviceID)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	sess, ok := s.sessions[deviceID]
	if !ok {
		persister := NewPersister(
			deviceID, s.deps.Remote, s.deps.Local, s.persisterOpts...,
		)
		sess = NewSession(s.ctx, deviceID, persister, s.deps.Identity, s.deps.Events)
		s.sessions[deviceID] = sess
		go sess.Open()
	}
	s.mu.Unlock()

	select {
	case <-sess.Ready():
		return sess, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// Close closes all sessions waiting for their pending saves.
func (s *Service) Close() {
	const op = "Service.Close"
	log := slog.With("op", op)

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info("closing sessions...", "nSessions", len(s.sessions))
	for id, sess := range s.sessions {
		<-sess.Ready()
		sess.Close()
		delete(s.sessions, id)
	}
	log.Info("sessions are closed")
}

func (s *Service) Cart(ctx context.Context, deviceID string) (domain.Cart, error) {
	const op = "Service.Cart"

	sess, err := s.Session(ctx, deviceID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.Store().Cart(), nil
}

func (s *Service) AddItem(
	ctx context.Context, deviceID, productID string, quantity int,
) (domain.Cart, domain.Status, error) {
	const op = "Service.AddItem"

	sess, err := s.Session(ctx, deviceID)
	if err != nil {
		return domain.Cart{}, domain.StatusUnchanged, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.deps.Catalog.ReadProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, domain.StatusUnchanged, fmt.Errorf("%s: %w", op, err)
	}

	c, status := sess.Store().AddItem(product, quantity)
	return c, status, nil
}

func (s *Service) UpdateQuantity(
	ctx context.Context, deviceID, productID string, quantity int,
) (domain.Cart, domain.Status, error) {
	const op = "Service.UpdateQuantity"

	sess, err := s.Session(ctx, deviceID)
	if err != nil {
		return domain.Cart{}, domain.StatusUnchanged, fmt.Errorf("%s: %w", op, err)
	}

	c, status := sess.Store().UpdateQuantity(productID, quantity)
	return c, status, nil
}

func (s *Service) RemoveItem(
	ctx context.Context, deviceID, productID string,
) (domain.Cart, error) {
	const op = "Service.RemoveItem"

	sess, err := s.Session(ctx, deviceID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.Store().RemoveItem(productID), nil
}

func (s *Service) ClearCart(ctx context.Context, deviceID string) (domain.Cart, error) {
	const op = "Service.ClearCart"

	sess, err := s.Session(ctx, deviceID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.Store().Clear(), nil
}
