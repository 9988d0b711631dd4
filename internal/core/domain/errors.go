package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedRecord = errors.New("malformed record")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidAddress  = errors.New("invalid shipping address")
	ErrEmptyDeviceID   = errors.New("empty device id")
)
