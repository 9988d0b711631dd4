package port

import (
	"context"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
)

// RemoteCart is the per-user cart record kept by the remote store.
type RemoteCart struct {
	Items     []domain.LineItem
	UpdatedAt time.Time
}

// FallbackMark remembers that the local record holds a user's cart
// which failed to reach the remote store.
type FallbackMark struct {
	UserID  string
	SavedAt time.Time
}

type RemoteCartStorage interface {
	// ReadCart returns [domain.ErrNotFound] when the user has no record.
	ReadCart(ctx context.Context, userID string) (RemoteCart, error)
	UpsertCart(ctx context.Context, userID string, items []domain.LineItem) error
}

type LocalCartStorage interface {
	// ReadLocalCart returns [domain.ErrNotFound] when the device has no
	// record and [domain.ErrMalformedRecord] when it can't be decoded.
	ReadLocalCart(ctx context.Context, deviceID string) ([]domain.LineItem, error)
	WriteLocalCart(ctx context.Context, deviceID string, items []domain.LineItem) error
	DeleteLocalCart(ctx context.Context, deviceID string) error

	ReadFallbackMark(ctx context.Context, deviceID string) (FallbackMark, error)
	WriteFallbackMark(ctx context.Context, deviceID string, m FallbackMark) error
	DeleteFallbackMark(ctx context.Context, deviceID string) error
}

type ProductCatalog interface {
	ReadProduct(ctx context.Context, productID string) (domain.Product, error)
}

type OrdersStorage interface {
	CreateOrder(ctx context.Context, o domain.Order) error
	ReadOrders(ctx context.Context, userID string) ([]domain.Order, error)
	ReadOrder(ctx context.Context, userID, orderID string) (domain.Order, error)
}

// IdentityListener receives the new identity of a device,
// nil on logout.
type IdentityListener func(user *domain.User)

type IdentityProvider interface {
	CurrentUser(deviceID string) *domain.User
	Subscribe(deviceID string, fn IdentityListener) (unsubscribe func())
}

type IdentitySwitcher interface {
	Login(deviceID string, user domain.User)
	Logout(deviceID string)
}

type CartEventsProducer interface {
	ProduceCartSnapshot(
		ctx context.Context, deviceID string, user *domain.User, cart domain.Cart,
	) error
}

type CartKeeper interface {
	Cart(ctx context.Context, deviceID string) (domain.Cart, error)
	AddItem(ctx context.Context, deviceID, productID string, quantity int) (domain.Cart, domain.Status, error)
	UpdateQuantity(ctx context.Context, deviceID, productID string, quantity int) (domain.Cart, domain.Status, error)
	RemoveItem(ctx context.Context, deviceID, productID string) (domain.Cart, error)
	ClearCart(ctx context.Context, deviceID string) (domain.Cart, error)
}

type OrderPlacer interface {
	Checkout(ctx context.Context, deviceID string, address domain.Address) (domain.Order, error)
	Orders(ctx context.Context, deviceID string) ([]domain.Order, error)
	Order(ctx context.Context, deviceID, orderID string) (domain.Order, error)
}
