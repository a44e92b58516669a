// Package postgres implements storage.Store backed by PostgreSQL, for
// deployments where the flat-file backend is not enough.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/storekeep/storekeep/db"
	"github.com/storekeep/storekeep/internal/domain/account"
	"github.com/storekeep/storekeep/internal/domain/product"
	"github.com/storekeep/storekeep/internal/storage"
)

const (
	listProductsSQL = `SELECT id, name, category, price, stock, description, url, last_updated
		FROM products ORDER BY seq`

	insertProductSQL = `INSERT INTO products (id, name, category, price, stock, description, url, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	replaceProductSQL = `UPDATE products
		SET name = $2, category = $3, price = $4, stock = $5, description = $6, url = $7, last_updated = $8
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listAccountsSQL = `SELECT username, password, role FROM accounts ORDER BY username`
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates a pool with shopspring/decimal support for NUMERIC columns
// and runs the embedded migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}

	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return &Store{pool: pool}, nil
}

// Ping checks connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ListProducts(ctx context.Context) ([]product.Product, error) {
	rows, err := s.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (s *Store) InsertProduct(ctx context.Context, p product.Product) (*product.Product, error) {
	p.ID = uuid.NewString()
	_, err := s.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, string(p.Category), p.Price, p.Stock, p.Description, p.URL, nullTime(p.UpdatedAt),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "insert product %q", p.Name)
	}
	return &p, nil
}

func (s *Store) ReplaceProduct(ctx context.Context, p product.Product) (*product.Product, error) {
	tag, err := s.pool.Exec(ctx, replaceProductSQL,
		p.ID, p.Name, string(p.Category), p.Price, p.Stock, p.Description, p.URL, nullTime(p.UpdatedAt),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "replace product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]account.Account, error) {
	rows, err := s.pool.Query(ctx, listAccountsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list accounts")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (account.Account, error) {
		var (
			a    account.Account
			role string
		)
		err := row.Scan(&a.Username, &a.Password, &role)
		a.Role = account.Role(role)
		return a, err
	})
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		category string
		price    decimal.Decimal
		updated  sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &category, &price, &p.Stock, &p.Description, &p.URL, &updated)
	if err != nil {
		return product.Product{}, err
	}
	p.Category = product.Category(category)
	p.Price = price
	if updated.Valid {
		p.UpdatedAt = updated.Time
	}
	return p, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
