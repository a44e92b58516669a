// Package jsonfile implements storage.Store over a single flat JSON file,
// the storage model of the mock REST servers this backend stands in for.
// The whole file is rewritten on every mutation.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storekeep/storekeep/internal/domain/account"
	"github.com/storekeep/storekeep/internal/domain/product"
	"github.com/storekeep/storekeep/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type productRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Price       json.Number `json:"price"`
	Stock       int         `json:"stock"`
	Description string      `json:"description"`
	URL         string      `json:"url,omitempty"`
	LastUpdated string      `json:"lastUpdated,omitempty"`
}

type accountRecord struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type database struct {
	Products []productRecord `json:"products"`
	Users    []accountRecord `json:"users"`
}

// Store is a flat-file backed storage.Store. Safe for concurrent use.
type Store struct {
	path string

	mu sync.Mutex
	db database
}

// defaultAccounts is written when the database file does not exist yet, so a
// fresh development setup can log in immediately.
var defaultAccounts = []accountRecord{
	{Username: "admin", Password: "admin123", Role: "admin"},
	{Username: "user", Password: "user123", Role: "user"},
}

// Open loads the database file, creating it with default accounts and an
// empty product list when absent.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.db = database{Products: []productRecord{}, Users: defaultAccounts}
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, errors.Wrapf(err, "read %s", path)
	default:
		if err := json.Unmarshal(data, &s.db); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}
	return s, nil
}

func (s *Store) ListProducts(_ context.Context) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]product.Product, 0, len(s.db.Products))
	for _, r := range s.db.Products {
		p, err := r.toDomain()
		if err != nil {
			return nil, errors.Wrapf(err, "record %s", r.ID)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) InsertProduct(_ context.Context, p product.Product) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	s.db.Products = append(s.db.Products, toRecord(p))
	if err := s.flushLocked(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ReplaceProduct(_ context.Context, p product.Product) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.db.Products {
		if r.ID == p.ID {
			s.db.Products[i] = toRecord(p)
			if err := s.flushLocked(); err != nil {
				return nil, err
			}
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.db.Products {
		if r.ID == id {
			s.db.Products = append(s.db.Products[:i], s.db.Products[i+1:]...)
			return s.flushLocked()
		}
	}
	return product.ErrNotFound
}

func (s *Store) ListAccounts(_ context.Context) ([]account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]account.Account, 0, len(s.db.Users))
	for _, r := range s.db.Users {
		out = append(out, account.Account{
			Username: r.Username,
			Password: r.Password,
			Role:     account.Role(r.Role),
		})
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

// flushLocked rewrites the database file. Caller must hold s.mu.
func (s *Store) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}
	data, err := json.MarshalIndent(&s.db, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal database")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", s.path)
	}
	return nil
}

func toRecord(p product.Product) productRecord {
	r := productRecord{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Price:       json.Number(p.Price.String()),
		Stock:       p.Stock,
		Description: p.Description,
		URL:         p.URL,
	}
	if !p.UpdatedAt.IsZero() {
		r.LastUpdated = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return r
}

func (r productRecord) toDomain() (product.Product, error) {
	price, err := decimal.NewFromString(r.Price.String())
	if err != nil {
		return product.Product{}, errors.Wrap(err, "parse price")
	}
	p := product.Product{
		ID:          r.ID,
		Name:        r.Name,
		Category:    product.Category(r.Category),
		Price:       price,
		Stock:       r.Stock,
		Description: r.Description,
		URL:         r.URL,
	}
	if r.LastUpdated != "" {
		if t, err := time.Parse(time.RFC3339, r.LastUpdated); err == nil {
			p.UpdatedAt = t
		}
	}
	return p, nil
}
