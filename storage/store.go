package storage

import (
	"context"
	"errors"

	"leaflet/leaflet"
)

// ErrNoProducts is returned by Load before anything has been saved.
var ErrNoProducts = errors.New("no products available")

// Store holds the latest extraction result.
type Store interface {
	// Load returns the most recently saved products.
	Load(ctx context.Context) ([]leaflet.Product, error)
	// Save replaces the stored products.
	Save(ctx context.Context, products []leaflet.Product) error
	Close() error
}
