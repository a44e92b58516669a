// Package catalog maintains the authoritative in-memory product collection.
// All mutations go through the Manager, which validates invariants before any
// network call and reconciles backend responses into the local collection.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// Manager holds the in-memory product collection. The collection is always a
// cache of backend state: rebuilt wholesale by Load and patched incrementally
// by the responses to Add, Update and Remove.
type Manager struct {
	repo     product.Repository
	notifier Notifier
	lg       *zap.Logger
	now      func() time.Time

	mu    sync.RWMutex
	items []product.Product
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sets the notification sink. Defaults to NopNotifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(lg *zap.Logger) Option {
	return func(m *Manager) { m.lg = lg }
}

// WithClock overrides the time source used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager over the given repository. The collection starts
// empty; call Load to populate it.
func New(repo product.Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		notifier: NopNotifier{},
		lg:       zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the entire collection and replaces the in-memory state
// atomically. On transport failure the previous collection is retained
// unchanged. Every item below the stock threshold triggers a low-stock
// notification, deduplicated by item id.
func (m *Manager) Load(ctx context.Context) error {
	fetched, err := m.repo.List(ctx)
	if err != nil {
		m.lg.Warn("catalog load failed, keeping stale collection", zap.Error(err))
		return errors.Wrap(err, "load catalog")
	}

	m.mu.Lock()
	m.items = fetched
	m.mu.Unlock()

	for _, p := range fetched {
		if p.LowStock() {
			m.notifier.Publish(lowStockNotification(p))
		}
	}

	m.lg.Debug("catalog loaded", zap.Int("items", len(fetched)))
	return nil
}

// Add validates the candidate, rejects duplicates, creates the record on the
// backend, and appends the backend-returned record to the collection.
func (m *Manager) Add(ctx context.Context, candidate product.Product) (*product.Product, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if dup := m.findByName(candidate.Name, ""); dup != nil {
		return nil, &product.DuplicateError{Name: dup.Name}
	}

	candidate.ID = ""
	candidate.UpdatedAt = m.now()

	created, err := m.repo.Create(ctx, candidate)
	if err != nil {
		return nil, errors.Wrap(err, "create product")
	}

	m.mu.Lock()
	m.items = append(m.items, *created)
	m.mu.Unlock()

	m.notifier.Publish(Notification{
		Kind:    KindSuccess,
		Message: fmt.Sprintf("added %s", created.Name),
	})
	if created.LowStock() {
		m.notifier.Publish(lowStockNotification(*created))
	}

	m.lg.Info("product added", zap.String("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// Update validates the record, rejects collisions with other ids, replaces
// the record on the backend, and swaps the matching in-memory entry in place.
// Collection order is otherwise unchanged.
func (m *Manager) Update(ctx context.Context, rec product.Product) (*product.Product, error) {
	if rec.ID == "" {
		return nil, &product.ValidationError{Field: "id", Reason: "must not be blank"}
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if dup := m.findByName(rec.Name, rec.ID); dup != nil {
		return nil, &product.DuplicateError{Name: dup.Name}
	}

	rec.UpdatedAt = m.now()

	updated, err := m.repo.Replace(ctx, rec)
	if err != nil {
		return nil, errors.Wrap(err, "replace product")
	}

	m.mu.Lock()
	for i := range m.items {
		if m.items[i].ID == updated.ID {
			m.items[i] = *updated
			break
		}
	}
	m.mu.Unlock()

	m.notifier.Publish(Notification{
		Kind:    KindSuccess,
		Message: fmt.Sprintf("updated %s", updated.Name),
	})
	if updated.LowStock() {
		m.notifier.Publish(lowStockNotification(*updated))
	}

	m.lg.Info("product updated", zap.String("id", updated.ID))
	return updated, nil
}

// Remove deletes the product by id on the backend and drops the matching
// in-memory entry. A nonexistent id surfaces the backend's NotFound outcome.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete product")
	}

	m.mu.Lock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.lg.Info("product removed", zap.String("id", id))
	return nil
}

// Get returns a copy of the product with the given id, if present.
func (m *Manager) Get(id string) (product.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.items {
		if p.ID == id {
			return p, true
		}
	}
	return product.Product{}, false
}

// Items returns a copy of the collection in insertion order.
func (m *Manager) Items() []product.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]product.Product, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the collection size.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// findByName returns the first product whose name matches case-insensitively,
// excluding the given id. Nil when there is no match.
func (m *Manager) findByName(name, excludeID string) *product.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.items {
		if m.items[i].ID != excludeID && m.items[i].NameEquals(name) {
			p := m.items[i]
			return &p
		}
	}
	return nil
}
