package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMigrateDSN(t *testing.T) {
	for in, want := range map[string]string{
		"postgres://cart:secret@db:5432/shop":   "pgx5://cart:secret@db:5432/shop",
		"postgresql://cart@db/shop":             "pgx5://cart@db/shop",
		"pgx5://cart@db/shop":                   "pgx5://cart@db/shop",
		"cart:secret@db:5432/shop?sslmode=none": "pgx5://cart:secret@db:5432/shop?sslmode=none",
	} {
		assert.Equal(t, want, toMigrateDSN(in), in)
	}
}
