// Package identity keeps the signed in user of every device.
package identity

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var _ port.IdentityProvider = (*Registry)(nil)
var _ port.IdentitySwitcher = (*Registry)(nil)

type listener struct {
	id int
	fn port.IdentityListener
}

// A Recaller restores the last known user of a device,
// e.g. after a restart.
type Recaller interface {
	LastUser(deviceID string) (domain.User, bool)
}

type RegistryOpt func(*Registry)

// RecallerOpt sets where CurrentUser looks for devices
// the registry has not seen yet.
func RecallerOpt(rc Recaller) RegistryOpt {
	return func(r *Registry) {
		r.recaller = rc
	}
}

// A Registry is an in-process identity provider. Listeners are called
// synchronously, in the goroutine that switched the identity, and only
// when the identity actually changes.
type Registry struct {
	mu        sync.Mutex
	users     map[string]domain.User
	signedOut map[string]struct{}
	listeners map[string][]listener
	nextID    int
	recaller  Recaller
}

func NewRegistry(opts ...RegistryOpt) *Registry {
	r := &Registry{
		users:     make(map[string]domain.User),
		signedOut: make(map[string]struct{}),
		listeners: make(map[string][]listener),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CurrentUser returns the signed in user of the device. Devices signed
// out in this process are never recalled.
func (r *Registry) CurrentUser(deviceID string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[deviceID]; ok {
		return &user
	}

	if _, ok := r.signedOut[deviceID]; ok || r.recaller == nil {
		return nil
	}

	user, ok := r.recaller.LastUser(deviceID)
	if !ok {
		return nil
	}
	r.users[deviceID] = user
	return &user
}

func (r *Registry) Subscribe(deviceID string, fn port.IdentityListener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[deviceID] = append(r.listeners[deviceID], listener{id, fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.listeners[deviceID] = slices.DeleteFunc(
			r.listeners[deviceID],
			func(l listener) bool { return l.id == id },
		)
		if len(r.listeners[deviceID]) == 0 {
			delete(r.listeners, deviceID)
		}
	}
}

func (r *Registry) Login(deviceID string, user domain.User) {
	const op = "Registry.Login"
	log := slog.With("op", op, "deviceID", deviceID)

	r.mu.Lock()
	prev, ok := r.users[deviceID]
	if ok && prev == user {
		r.mu.Unlock()
		return
	}
	r.users[deviceID] = user
	delete(r.signedOut, deviceID)
	listeners := slices.Clone(r.listeners[deviceID])
	r.mu.Unlock()

	log.Info("signed in")
	notify(listeners, &user)
}

func (r *Registry) Logout(deviceID string) {
	const op = "Registry.Logout"
	log := slog.With("op", op, "deviceID", deviceID)

	r.mu.Lock()
	r.signedOut[deviceID] = struct{}{}
	if _, ok := r.users[deviceID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.users, deviceID)
	listeners := slices.Clone(r.listeners[deviceID])
	r.mu.Unlock()

	log.Info("signed out")
	notify(listeners, nil)
}

func notify(listeners []listener, user *domain.User) {
	for _, l := range listeners {
		var u *domain.User
		if user != nil {
			copied := *user
			u = &copied
		}
		l.fn(u)
	}
}
