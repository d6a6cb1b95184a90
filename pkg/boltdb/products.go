package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"leaflet/leaflet"
	"leaflet/storage"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketName = []byte("products")
	latestKey  = []byte("latest")
)

// Store keeps the latest extraction as one JSON value in a bbolt bucket.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open creates the database file and bucket if they do not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for BoltDB: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) ([]leaflet.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var products []leaflet.Product
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(latestKey)
		if v == nil {
			return storage.ErrNoProducts
		}
		return json.Unmarshal(v, &products)
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []leaflet.Product{}
	}
	return products, nil
}

func (s *Store) Save(ctx context.Context, products []leaflet.Product) error {
	if products == nil {
		products = []leaflet.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(latestKey, data)
	})
}

// Close closes the BoltDB database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
