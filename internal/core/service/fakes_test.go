package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var errUnavailable = errors.New("remote is unavailable")

func testProduct(id string, stock int, price int64) domain.Product {
	return domain.Product{
		ID:   id,
		Name: "product " + id,
		Price: domain.ProductPrice{
			Original: decimal.NewFromInt(price),
			Current:  decimal.NewFromInt(price),
		},
		Stock: stock,
	}
}

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) ReadCart(ctx context.Context, userID string) (port.RemoteCart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(port.RemoteCart), args.Error(1)
}

func (m *MockRemote) UpsertCart(
	ctx context.Context, userID string, items []domain.LineItem,
) error {
	args := m.Called(ctx, userID, items)
	return args.Error(0)
}

// memRemote is a remote store that can be switched off.
type memRemote struct {
	mu     sync.Mutex
	down   bool
	carts  map[string]port.RemoteCart
	now    func() time.Time
	writes int
}

func newMemRemote(now func() time.Time) *memRemote {
	return &memRemote{carts: make(map[string]port.RemoteCart), now: now}
}

func (r *memRemote) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *memRemote) ReadCart(_ context.Context, userID string) (port.RemoteCart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return port.RemoteCart{}, errUnavailable
	}
	c, ok := r.carts[userID]
	if !ok {
		return port.RemoteCart{}, domain.ErrNotFound
	}
	return c, nil
}

func (r *memRemote) UpsertCart(
	_ context.Context, userID string, items []domain.LineItem,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errUnavailable
	}
	r.writes++
	r.carts[userID] = port.RemoteCart{
		Items: slices.Clone(items), UpdatedAt: r.now(),
	}
	return nil
}

// gatedRemote holds ReadCart until the gate is opened.
type gatedRemote struct {
	*memRemote
	entered chan struct{}
	gate    chan struct{}
}

func newGatedRemote(r *memRemote) *gatedRemote {
	return &gatedRemote{
		memRemote: r,
		entered:   make(chan struct{}, 1),
		gate:      make(chan struct{}),
	}
}

func (r *gatedRemote) ReadCart(ctx context.Context, userID string) (port.RemoteCart, error) {
	select {
	case r.entered <- struct{}{}:
	default:
	}
	<-r.gate
	return r.memRemote.ReadCart(ctx, userID)
}

type memLocal struct {
	mu        sync.Mutex
	carts     map[string][]domain.LineItem
	malformed map[string]bool
	marks     map[string]port.FallbackMark
}

func newMemLocal() *memLocal {
	return &memLocal{
		carts:     make(map[string][]domain.LineItem),
		malformed: make(map[string]bool),
		marks:     make(map[string]port.FallbackMark),
	}
}

func (l *memLocal) ReadLocalCart(
	_ context.Context, deviceID string,
) ([]domain.LineItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.malformed[deviceID] {
		return nil, domain.ErrMalformedRecord
	}
	items, ok := l.carts[deviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(items), nil
}

func (l *memLocal) WriteLocalCart(
	_ context.Context, deviceID string, items []domain.LineItem,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.malformed, deviceID)
	l.carts[deviceID] = slices.Clone(items)
	return nil
}

func (l *memLocal) DeleteLocalCart(_ context.Context, deviceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.malformed, deviceID)
	delete(l.carts, deviceID)
	return nil
}

func (l *memLocal) hasCart(deviceID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.carts[deviceID]
	return ok || l.malformed[deviceID]
}

func (l *memLocal) ReadFallbackMark(
	_ context.Context, deviceID string,
) (port.FallbackMark, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.marks[deviceID]
	if !ok {
		return port.FallbackMark{}, domain.ErrNotFound
	}
	return m, nil
}

func (l *memLocal) WriteFallbackMark(
	_ context.Context, deviceID string, m port.FallbackMark,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.marks[deviceID] = m
	return nil
}

func (l *memLocal) DeleteFallbackMark(_ context.Context, deviceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.marks, deviceID)
	return nil
}

type memIdentity struct {
	mu    sync.Mutex
	users map[string]*domain.User
	subs  map[string][]port.IdentityListener
}

func newMemIdentity() *memIdentity {
	return &memIdentity{
		users: make(map[string]*domain.User),
		subs:  make(map[string][]port.IdentityListener),
	}
}

func (i *memIdentity) CurrentUser(deviceID string) *domain.User {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.users[deviceID]
}

func (i *memIdentity) Subscribe(
	deviceID string, fn port.IdentityListener,
) func() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.subs[deviceID] = append(i.subs[deviceID], fn)
	return func() {}
}

func (i *memIdentity) set(deviceID string, user *domain.User) {
	i.mu.Lock()
	i.users[deviceID] = user
	subs := slices.Clone(i.subs[deviceID])
	i.mu.Unlock()

	for _, fn := range subs {
		fn(user)
	}
}

// stepClock returns strictly increasing times.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func productIDs(items []domain.LineItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	slices.Sort(ids)
	return ids
}

func portRemoteCart(items ...domain.LineItem) port.RemoteCart {
	return port.RemoteCart{Items: items}
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) ProduceCartSnapshot(
	ctx context.Context, deviceID string, user *domain.User, c domain.Cart,
) error {
	args := m.Called(ctx, deviceID, user, c)
	return args.Error(0)
}
