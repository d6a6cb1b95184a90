package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"leaflet/leaflet"
)

func TestFileStore_LoadBeforeSave(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "output", "data.json"))
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoProducts) {
		t.Errorf("expected ErrNoProducts, got %v", err)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "data.json")
	store := NewFileStore(path)
	ctx := context.Background()

	products := leaflet.Fallback()
	products[6] = leaflet.NewProduct(6, map[string]string{
		leaflet.FieldProductName: "Hähnchenbrustfilet <Freiland> & Co",
		"brand":                  "Hofgut",
	})
	if err := store.Save(ctx, products); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(products, loaded) {
		t.Errorf("loaded products differ from saved products")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Hähnchenbrustfilet <Freiland> & Co") {
		t.Error("non-ASCII and HTML characters should be written verbatim")
	}
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Errorf("expected indented JSON array, got %q", string(data)[:10])
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	ctx := context.Background()

	if err := store.Save(ctx, leaflet.Fallback()); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Errorf("expected an empty, non-nil result, got %v", loaded)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path).Load(context.Background())
	if err == nil || errors.Is(err, ErrNoProducts) {
		t.Errorf("expected decode error, got %v", err)
	}
}
