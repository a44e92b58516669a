// Package storage defines the persistence contract for the mock backend.
package storage

import (
	"context"

	"github.com/storekeep/storekeep/internal/domain/account"
	"github.com/storekeep/storekeep/internal/domain/product"
)

// Store persists the backend's products and accounts. Products are kept in
// insertion order; ids are assigned by InsertProduct. A missing id on
// ReplaceProduct or DeleteProduct yields product.ErrNotFound.
type Store interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
	InsertProduct(ctx context.Context, p product.Product) (*product.Product, error)
	ReplaceProduct(ctx context.Context, p product.Product) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListAccounts(ctx context.Context) ([]account.Account, error)

	Close() error
}
