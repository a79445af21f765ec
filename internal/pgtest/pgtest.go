// Package pgtest starts a throwaway PostgreSQL with the schema applied, for
// repository and placement tests.
package pgtest

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const image = "postgres:17.6-alpine3.22"

type DB struct {
	Pool      *pgxpool.Pool
	container *postgres.PostgresContainer
}

func Start(ctx context.Context) (*DB, error) {
	container, err := postgres.Run(ctx, image,
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(migration("001_init.up.sql")),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("pc.ConnectionString: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	return &DB{Pool: pool, container: container}, nil
}

func (d *DB) Close() {
	if d == nil {
		return
	}
	d.Pool.Close()
	_ = testcontainers.TerminateContainer(d.container)
}

// Truncate empties every table and resets identities.
func (d *DB) Truncate(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, `
		TRUNCATE TABLE order_items, orders, cart_items, inventory, product_images,
			products, addresses, users RESTART IDENTITY CASCADE
	`)
	return err
}

// SeedProduct inserts a product priced in BRL with an inventory record of qty.
func (d *DB) SeedProduct(ctx context.Context, name, price string, qty int) (int64, error) {
	var id int64
	if err := d.Pool.QueryRow(ctx, `
		INSERT INTO products (name, price, currency) VALUES ($1, $2::numeric, 'BRL') RETURNING id
	`, name, price).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	if _, err := d.Pool.Exec(ctx, `
		INSERT INTO inventory (product_id, quantity) VALUES ($1, $2)
	`, id, qty); err != nil {
		return 0, fmt.Errorf("insert inventory: %w", err)
	}
	return id, nil
}

func migration(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations", name)
}
