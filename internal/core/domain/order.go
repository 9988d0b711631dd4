package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const OrderStatusPending = "pending"

type (
	Order struct {
		ID              string
		UserID          string
		Items           []LineItem
		Total           decimal.Decimal
		Status          string
		ShippingAddress Address
		TrackingNumber  string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	Address struct {
		Name    string
		Street  string
		City    string
		State   string
		ZipCode string
		Country string
	}
)

// A User is an authenticated identity. Anonymous sessions have none.
type User struct {
	ID string
}
