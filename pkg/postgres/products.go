package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"leaflet/leaflet"
	"leaflet/storage"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

type PostgresClient struct {
	pool *pgxpool.Pool
}

func NewClient(ctx context.Context, dbUrl string) (*PostgresClient, error) {
	pool, err := pgxpool.New(ctx, dbUrl)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if err := migrateUp(dbUrl); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresClient{
		pool: pool,
	}, nil
}

func migrateUp(dbUrl string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("unable to read migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbUrl)
	if err != nil {
		return fmt.Errorf("unable to prepare migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}
	return nil
}

func (c *PostgresClient) Load(ctx context.Context) ([]leaflet.Product, error) {
	var one int
	err := c.pool.QueryRow(ctx, `SELECT id FROM leaflet_extraction WHERE id = 1`).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNoProducts
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read extraction: %w", err)
	}

	rows, err := c.pool.Query(ctx, `SELECT body FROM leaflet_products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("unable to query products: %w", err)
	}
	defer rows.Close()

	products := []leaflet.Product{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("unable to scan product: %w", err)
		}
		var p leaflet.Product
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("unable to decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (c *PostgresClient) Save(ctx context.Context, products []leaflet.Product) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM leaflet_products`); err != nil {
		return fmt.Errorf("unable to clear products: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range products {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("unable to encode product %d: %w", i, err)
		}
		batch.Queue(`INSERT INTO leaflet_products (position, body) VALUES ($1, $2)`, i, string(body))
	}
	batch.Queue(`
		INSERT INTO leaflet_extraction (id, saved_at) VALUES (1, now())
		ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at
	`)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("unable to insert products: %w", err)
	}

	return tx.Commit(ctx)
}

func (c *PostgresClient) Close() error {
	c.pool.Close()
	return nil
}

var _ storage.Store = (*PostgresClient)(nil)
