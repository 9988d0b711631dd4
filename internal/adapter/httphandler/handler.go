package httphandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

// GET    v1/devices/{device}/cart                   (200 OK)
// POST   v1/devices/{device}/cart/items             JSON {"product_id", "quantity"} (200 OK, 404 Not found)
// PATCH  v1/devices/{device}/cart/items/{product}   JSON {"quantity"} (200 OK)
// DELETE v1/devices/{device}/cart/items/{product}   (200 OK)
// DELETE v1/devices/{device}/cart                   (200 OK)

type CartHandler struct {
	keeper port.CartKeeper
}

func RegisterCart(mux *http.ServeMux, keeper port.CartKeeper) {
	h := CartHandler{keeper}
	mux.HandleFunc("GET /v1/devices/{device}/cart", h.GetCart)
	mux.HandleFunc("POST /v1/devices/{device}/cart/items", h.PostItem)
	mux.HandleFunc("PATCH /v1/devices/{device}/cart/items/{product}", h.PatchItem)
	mux.HandleFunc("DELETE /v1/devices/{device}/cart/items/{product}", h.DeleteItem)
	mux.HandleFunc("DELETE /v1/devices/{device}/cart", h.DeleteCart)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	c, err := h.keeper.Cart(r.Context(), r.PathValue("device"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromDomain(c))
}

func (h CartHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if !readJSON(w, r, log, &req) {
		return
	}

	if req.ProductID == "" {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	c, status, err := h.keeper.AddItem(
		r.Context(), r.PathValue("device"), req.ProductID, quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartWithStatus(c, status, req.ProductID))
}

func (h CartHandler) PatchItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PatchItem"
	log := slog.With("op", op)

	var req UpdateQuantityRequest
	if !readJSON(w, r, log, &req) {
		return
	}

	if req.Quantity == nil {
		http.Error(w, "quantity is required", http.StatusBadRequest)
		return
	}

	productID := r.PathValue("product")
	c, status, err := h.keeper.UpdateQuantity(
		r.Context(), r.PathValue("device"), productID, *req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartWithStatus(c, status, productID))
}

func (h CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteItem"
	log := slog.With("op", op)

	c, err := h.keeper.RemoveItem(
		r.Context(), r.PathValue("device"), r.PathValue("product"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromDomain(c))
}

func (h CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteCart"
	log := slog.With("op", op)

	c, err := h.keeper.ClearCart(r.Context(), r.PathValue("device"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromDomain(c))
}

func cartWithStatus(c domain.Cart, status domain.Status, productID string) Cart {
	v := cartFromDomain(c)
	v.Status = status.String()
	if status != domain.StatusStockExceeded {
		return v
	}
	for _, item := range c.Items {
		if item.ID == productID {
			v.Notice = fmt.Sprintf("only %d items available", item.Stock)
			return v
		}
	}
	v.Notice = "out of stock"
	return v
}

// PUT    v1/devices/{device}/identity JSON {"user_id"} (204 No content, 400 Bad request)
// DELETE v1/devices/{device}/identity (204 No content)

type IdentityHandler struct {
	switcher port.IdentitySwitcher
}

func RegisterIdentity(mux *http.ServeMux, switcher port.IdentitySwitcher) {
	h := IdentityHandler{switcher}
	mux.HandleFunc("PUT /v1/devices/{device}/identity", h.PutIdentity)
	mux.HandleFunc("DELETE /v1/devices/{device}/identity", h.DeleteIdentity)
}

func (h IdentityHandler) PutIdentity(w http.ResponseWriter, r *http.Request) {
	const op = "IdentityHandler.PutIdentity"
	log := slog.With("op", op)

	var req IdentityRequest
	if !readJSON(w, r, log, &req) {
		return
	}

	if _, err := uuid.Parse(req.UserID); err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	h.switcher.Login(r.PathValue("device"), domain.User{ID: req.UserID})
	w.WriteHeader(http.StatusNoContent)
}

func (h IdentityHandler) DeleteIdentity(w http.ResponseWriter, r *http.Request) {
	h.switcher.Logout(r.PathValue("device"))
	w.WriteHeader(http.StatusNoContent)
}

// POST v1/devices/{device}/checkout JSON {"shipping_address"} (201 Created, 401, 409, 422)
// GET  v1/devices/{device}/orders (200 OK, 401 Unauthorized)
// GET  v1/devices/{device}/orders/{order} (200 OK, 401 Unauthorized, 404 Not found)

type OrdersHandler struct {
	placer port.OrderPlacer
}

func RegisterOrders(mux *http.ServeMux, placer port.OrderPlacer) {
	h := OrdersHandler{placer}
	mux.HandleFunc("POST /v1/devices/{device}/checkout", h.PostCheckout)
	mux.HandleFunc("GET /v1/devices/{device}/orders", h.GetOrders)
	mux.HandleFunc("GET /v1/devices/{device}/orders/{order}", h.GetOrder)
}

func (h OrdersHandler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.PostCheckout"
	log := slog.With("op", op)

	var req CheckoutRequest
	if !readJSON(w, r, log, &req) {
		return
	}

	o, err := h.placer.Checkout(
		r.Context(), r.PathValue("device"), req.ShippingAddress.toDomain(),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	log.Info("order placed", "orderID", o.ID)
	writeJSON(w, log, http.StatusCreated, orderFromDomain(o))
}

func (h OrdersHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.GetOrders"
	log := slog.With("op", op)

	orders, err := h.placer.Orders(r.Context(), r.PathValue("device"))
	if err != nil {
		writeError(w, log, err)
		return
	}

	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = orderFromDomain(o)
	}
	writeJSON(w, log, http.StatusOK, out)
}

func (h OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.GetOrder"
	log := slog.With("op", op)

	o, err := h.placer.Order(
		r.Context(), r.PathValue("device"), r.PathValue("order"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, orderFromDomain(o))
}

func readJSON(
	w http.ResponseWriter, r *http.Request, log *slog.Logger, v any,
) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyDeviceID):
		http.Error(w, "device is required", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Error(w, "sign in required", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrEmptyCart):
		http.Error(w, "cart is empty", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidAddress):
		http.Error(w, "invalid shipping address", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
		log.Error("request failed", "err", err)
	}
}
