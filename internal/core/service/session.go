package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

type SessionState int

const (
	StateUninitialized SessionState = iota
	StateLoading
	StateReady
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// A Session binds the cart of one device to its persistence
// and identity.
//
// Every cart change in the ready state is saved in a separate
// goroutine. Saves are not ordered: the last one to complete wins.
type Session struct {
	deviceID  string
	ctx       context.Context
	store     *CartStore
	persister *Persister
	identity  port.IdentityProvider
	events    port.CartEventsProducer

	reloadMu sync.Mutex

	mu    sync.Mutex
	state SessionState
	user  *domain.User

	saves sync.WaitGroup
	unsub []func()
	ready chan struct{}
}

// NewSession creates an uninitialized session. ctx bounds
// the background saves and should outlive the session.
func NewSession(
	ctx context.Context,
	deviceID string,
	persister *Persister,
	identity port.IdentityProvider,
	events port.CartEventsProducer,
) *Session {
	return &Session{
		deviceID:  deviceID,
		ctx:       context.WithoutCancel(ctx),
		store:     NewCartStore(),
		persister: persister,
		identity:  identity,
		events:    events,
		ready:     make(chan struct{}),
	}
}

// Open loads the cart for the current identity and starts
// following identity changes. It must be called once.
//
// The load runs on the session context, a caller giving up
// on the first request does not turn into an empty cart.
func (s *Session) Open() {
	defer close(s.ready)

	s.unsub = append(s.unsub,
		s.store.Subscribe(s.onCartChange),
		s.identity.Subscribe(s.deviceID, func(user *domain.User) {
			s.reload(s.ctx, user)
		}),
	)
	s.reload(s.ctx, s.identity.CurrentUser(s.deviceID))
}

// Ready is closed when Open returns.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Close stops following identity changes and waits for in-flight saves.
func (s *Session) Close() {
	for _, fn := range s.unsub {
		fn()
	}
	s.unsub = nil
	s.Wait()
}

// Wait blocks until all issued saves complete.
func (s *Session) Wait() {
	s.saves.Wait()
}

func (s *Session) Store() *CartStore {
	return s.store
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// reload discards the in-memory cart and loads the one that belongs
// to user. Carts of different identities are never merged.
func (s *Session) reload(ctx context.Context, user *domain.User) {
	const op = "Session.reload"
	log := slog.With("op", op, "deviceID", s.deviceID)

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.mu.Lock()
	s.state = StateLoading
	s.user = user
	s.mu.Unlock()

	items := s.persister.Load(ctx, user)
	s.store.Replace(items)

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()

	log.Info("cart loaded", "authenticated", user != nil, "nItems", len(items))
}

func (s *Session) onCartChange(c domain.Cart) {
	s.mu.Lock()
	state, user := s.state, s.user
	s.mu.Unlock()

	if state != StateReady {
		return
	}

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		s.persister.Save(s.ctx, user, c.Items)
	}()

	if s.events != nil {
		s.saves.Add(1)
		go func() {
			defer s.saves.Done()
			s.publish(user, c)
		}()
	}
}

func (s *Session) publish(user *domain.User, c domain.Cart) {
	const op = "Session.publish"
	log := slog.With("op", op, "deviceID", s.deviceID)

	err := s.events.ProduceCartSnapshot(s.ctx, s.deviceID, user, c)
	if err != nil {
		log.Error("failed to publish cart snapshot", "err", err)
	}
}
