package boltdb

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"leaflet/leaflet"
	"leaflet/storage"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "products.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, storage.ErrNoProducts) {
		t.Fatalf("expected ErrNoProducts, got %v", err)
	}

	products := leaflet.Fallback()
	if err := store.Save(ctx, products); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen to make sure the result survived on disk.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(products, loaded) {
		t.Error("loaded products differ from saved products")
	}

	if err := store.Save(ctx, products[:2]); err != nil {
		t.Fatal(err)
	}
	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Errorf("expected the second save to replace the first, got %d products", len(loaded))
	}
}
