package product

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// LowStockThreshold is the stock quantity below which a product is
// considered low on stock.
const LowStockThreshold = 10

// Category is the fixed set of catalog categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{CategoryElectronics, CategoryClothing, CategoryBooks}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryBooks:
		return true
	}
	return false
}

// Product represents one catalog item. ID is assigned by the backend on
// creation and is empty on candidates that have not been persisted yet.
type Product struct {
	ID          string
	Name        string
	Category    Category
	Price       decimal.Decimal
	Stock       int
	Description string
	URL         string
	UpdatedAt   time.Time
}

// LowStock reports whether the product's stock is below the threshold.
func (p Product) LowStock() bool {
	return p.Stock < LowStockThreshold
}

// Validate checks the field-validity rules shared by creation and update.
// It never touches the network.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if p.Category == "" {
		return &ValidationError{Field: "category", Reason: "must not be blank"}
	}
	if !p.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", p.Category)}
	}
	if !p.Price.IsPositive() {
		return &ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	if p.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if p.URL != "" {
		u, err := url.Parse(p.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ValidationError{Field: "url", Reason: "must be a well-formed URL"}
		}
	}
	return nil
}

// NameEquals reports whether the product's name matches other
// case-insensitively. Name uniqueness within a collection is defined in
// these terms.
func (p Product) NameEquals(other string) bool {
	return strings.EqualFold(p.Name, other)
}

// ValidationError indicates a candidate failed field validation before any
// network call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateError indicates a candidate's name collides case-insensitively
// with an existing product.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("product named %q already exists", e.Name)
}

// Repository defines the remote CRUD operations for the product catalog.
// Create and Replace return the backend's record representation, including
// the assigned id and any server-side normalization.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Replace(ctx context.Context, p Product) (*Product, error)
	Delete(ctx context.Context, id string) error
}
