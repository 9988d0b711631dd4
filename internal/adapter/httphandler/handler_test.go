package httphandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCartKeeper struct {
	mock.Mock
}

func (m *MockCartKeeper) Cart(ctx context.Context, deviceID string) (domain.Cart, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockCartKeeper) AddItem(
	ctx context.Context, deviceID, productID string, quantity int,
) (domain.Cart, domain.Status, error) {
	args := m.Called(ctx, deviceID, productID, quantity)
	return args.Get(0).(domain.Cart), args.Get(1).(domain.Status), args.Error(2)
}

func (m *MockCartKeeper) UpdateQuantity(
	ctx context.Context, deviceID, productID string, quantity int,
) (domain.Cart, domain.Status, error) {
	args := m.Called(ctx, deviceID, productID, quantity)
	return args.Get(0).(domain.Cart), args.Get(1).(domain.Status), args.Error(2)
}

func (m *MockCartKeeper) RemoveItem(
	ctx context.Context, deviceID, productID string,
) (domain.Cart, error) {
	args := m.Called(ctx, deviceID, productID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockCartKeeper) ClearCart(ctx context.Context, deviceID string) (domain.Cart, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

type MockOrderPlacer struct {
	mock.Mock
}

func (m *MockOrderPlacer) Checkout(
	ctx context.Context, deviceID string, address domain.Address,
) (domain.Order, error) {
	args := m.Called(ctx, deviceID, address)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderPlacer) Orders(ctx context.Context, deviceID string) ([]domain.Order, error) {
	args := m.Called(ctx, deviceID)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *MockOrderPlacer) Order(
	ctx context.Context, deviceID, orderID string,
) (domain.Order, error) {
	args := m.Called(ctx, deviceID, orderID)
	return args.Get(0).(domain.Order), args.Error(1)
}

type MockIdentitySwitcher struct {
	mock.Mock
}

func (m *MockIdentitySwitcher) Login(deviceID string, user domain.User) {
	m.Called(deviceID, user)
}

func (m *MockIdentitySwitcher) Logout(deviceID string) {
	m.Called(deviceID)
}

type testEnv struct {
	keeper   *MockCartKeeper
	placer   *MockOrderPlacer
	switcher *MockIdentitySwitcher
	handler  http.Handler
}

func newTestEnv() testEnv {
	env := testEnv{
		keeper:   new(MockCartKeeper),
		placer:   new(MockOrderPlacer),
		switcher: new(MockIdentitySwitcher),
	}
	mux := http.NewServeMux()
	RegisterCart(mux, env.keeper)
	RegisterOrders(mux, env.placer)
	RegisterIdentity(mux, env.switcher)
	env.handler = AllowJSON(mux)
	return env
}

func (env testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	return w
}

func lampCart(quantity int) domain.Cart {
	return domain.Cart{Items: []domain.LineItem{{
		Product: domain.Product{
			ID:   "p1",
			Name: "Lamp",
			Price: domain.ProductPrice{
				Original: decimal.NewFromInt(10),
				Current:  decimal.NewFromInt(10),
			},
			Stock: 5,
		},
		Quantity: quantity,
	}}}
}

func TestCartHandler(t *testing.T) {
	t.Run("GetCart", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("Cart", mock.Anything, "device").Return(lampCart(3), nil)

		w := env.do(http.MethodGet, "/v1/devices/device/cart", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{
			"items": [{
				"product_id": "p1",
				"name": "Lamp",
				"price": {"original": "10", "current": "10"},
				"discount": 0,
				"images": null,
				"category": "",
				"tags": null,
				"stock": 5,
				"rating": 0,
				"reviews": 0,
				"featured": false,
				"quantity": 3,
				"subtotal": "30"
			}],
			"total": "30",
			"item_count": 3
		}`, w.Body.String())
	})

	t.Run("PostItemDefaultQuantity", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("AddItem", mock.Anything, "device", "p1", 1).
			Return(lampCart(1), domain.StatusUpdated, nil)

		w := env.do(http.MethodPost, "/v1/devices/device/cart/items", `{"product_id": "p1"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"updated"`)
		assert.NotContains(t, w.Body.String(), "notice")
		env.keeper.AssertExpectations(t)
	})

	t.Run("PostItemStockExceeded", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("AddItem", mock.Anything, "device", "p1", 4).
			Return(lampCart(5), domain.StatusStockExceeded, nil)

		w := env.do(
			http.MethodPost, "/v1/devices/device/cart/items",
			`{"product_id": "p1", "quantity": 4}`,
		)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"notice":"only 5 items available"`)
		assert.Contains(t, w.Body.String(), `"status":"stock_exceeded"`)
	})

	t.Run("PostItemUnknownProduct", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("AddItem", mock.Anything, "device", "p9", 1).
			Return(domain.Cart{}, domain.StatusUnchanged, domain.ErrNotFound)

		w := env.do(http.MethodPost, "/v1/devices/device/cart/items", `{"product_id": "p9"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("PostItemInvalidBody", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPost, "/v1/devices/device/cart/items", `{"product_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(http.MethodPost, "/v1/devices/device/cart/items", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		env.keeper.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PostItemNotJSON", func(t *testing.T) {
		env := newTestEnv()

		r := httptest.NewRequest(
			http.MethodPost, "/v1/devices/device/cart/items",
			strings.NewReader("product_id=p1"),
		)
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("PatchItem", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("UpdateQuantity", mock.Anything, "device", "p1", 0).
			Return(domain.Cart{}, domain.StatusUpdated, nil)

		w := env.do(http.MethodPatch, "/v1/devices/device/cart/items/p1", `{"quantity": 0}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"items":[]`)
		env.keeper.AssertExpectations(t)
	})

	t.Run("PatchItemMissingQuantity", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPatch, "/v1/devices/device/cart/items/p1", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("DeleteItem", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("RemoveItem", mock.Anything, "device", "p1").
			Return(domain.Cart{}, nil)

		w := env.do(http.MethodDelete, "/v1/devices/device/cart/items/p1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		env.keeper.AssertExpectations(t)
	})

	t.Run("DeleteCart", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("ClearCart", mock.Anything, "device").Return(domain.Cart{}, nil)

		w := env.do(http.MethodDelete, "/v1/devices/device/cart", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":"0"`)
	})

	t.Run("InternalError", func(t *testing.T) {
		env := newTestEnv()
		env.keeper.On("Cart", mock.Anything, "device").
			Return(domain.Cart{}, errors.New("disk is full"))

		w := env.do(http.MethodGet, "/v1/devices/device/cart", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk")
	})
}

func TestIdentityHandler(t *testing.T) {
	const userID = "6f1c7a0e-5d0b-4b8e-9a53-3f0f5d1a2b7c"

	t.Run("Login", func(t *testing.T) {
		env := newTestEnv()
		env.switcher.On("Login", "device", domain.User{ID: userID}).Return()

		w := env.do(
			http.MethodPut, "/v1/devices/device/identity",
			`{"user_id": "`+userID+`"}`,
		)
		assert.Equal(t, http.StatusNoContent, w.Code)
		env.switcher.AssertExpectations(t)
	})

	t.Run("InvalidUser", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPut, "/v1/devices/device/identity", `{"user_id": "bob"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env.switcher.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("Logout", func(t *testing.T) {
		env := newTestEnv()
		env.switcher.On("Logout", "device").Return()

		w := env.do(http.MethodDelete, "/v1/devices/device/identity", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		env.switcher.AssertExpectations(t)
	})
}

func TestOrdersHandler(t *testing.T) {
	address := domain.Address{
		Name: "Jane", Street: "1 Main St", City: "Springfield",
		State: "IL", ZipCode: "62701", Country: "US",
	}
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:              "order-1",
		UserID:          "user",
		Items:           lampCart(2).Items,
		Total:           decimal.NewFromInt(20),
		Status:          domain.OrderStatusPending,
		ShippingAddress: address,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}

	checkoutBody := `{"shipping_address": {
		"name": "Jane", "street": "1 Main St", "city": "Springfield",
		"state": "IL", "zip_code": "62701", "country": "US"
	}}`

	t.Run("Checkout", func(t *testing.T) {
		env := newTestEnv()
		env.placer.On("Checkout", mock.Anything, "device", address).Return(order, nil)

		w := env.do(http.MethodPost, "/v1/devices/device/checkout", checkoutBody)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"order-1"`)
		assert.Contains(t, w.Body.String(), `"zip_code":"62701"`)
		assert.Contains(t, w.Body.String(), `"total":"20"`)
		assert.NotContains(t, w.Body.String(), "tracking_number")
	})

	for name, tc := range map[string]struct {
		err  error
		code int
	}{
		"Unauthenticated": {domain.ErrUnauthenticated, http.StatusUnauthorized},
		"EmptyCart":       {domain.ErrEmptyCart, http.StatusConflict},
		"InvalidAddress":  {domain.ErrInvalidAddress, http.StatusUnprocessableEntity},
	} {
		t.Run("Checkout"+name, func(t *testing.T) {
			env := newTestEnv()
			env.placer.On("Checkout", mock.Anything, "device", address).
				Return(domain.Order{}, tc.err)

			w := env.do(http.MethodPost, "/v1/devices/device/checkout", checkoutBody)
			assert.Equal(t, tc.code, w.Code)
		})
	}

	t.Run("Orders", func(t *testing.T) {
		env := newTestEnv()
		env.placer.On("Orders", mock.Anything, "device").
			Return([]domain.Order{order}, nil)

		w := env.do(http.MethodGet, "/v1/devices/device/orders", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "["))
		assert.Contains(t, w.Body.String(), `"created_at":"2026-03-01T12:00:00Z"`)
	})

	t.Run("NoOrders", func(t *testing.T) {
		env := newTestEnv()
		env.placer.On("Orders", mock.Anything, "device").Return(nil, nil)

		w := env.do(http.MethodGet, "/v1/devices/device/orders", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("OrderNotFound", func(t *testing.T) {
		env := newTestEnv()
		env.placer.On("Order", mock.Anything, "device", "missing").
			Return(domain.Order{}, domain.ErrNotFound)

		w := env.do(http.MethodGet, "/v1/devices/device/orders/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
