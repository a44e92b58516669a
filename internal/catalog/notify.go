package catalog

import (
	"fmt"
	"sync"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// Kind classifies a notification for presentation purposes.
type Kind string

const (
	KindSuccess  Kind = "success"
	KindError    Kind = "error"
	KindLowStock Kind = "low-stock"
)

// Notification is a user-visible message emitted by catalog operations.
// Key identifies the notification for deduplication: publishing a second
// notification with the same non-empty key overwrites the first instead of
// multiplying it.
type Notification struct {
	Kind    Kind
	Key     string
	Message string
}

// Notifier receives notifications emitted by the catalog manager.
type Notifier interface {
	Publish(n Notification)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Publish(Notification) {}

// Center is a Notifier that retains notifications in publish order,
// deduplicated by key. It is safe for concurrent use.
type Center struct {
	mu    sync.Mutex
	index map[string]int
	list  []Notification
}

// NewCenter returns an empty notification center.
func NewCenter() *Center {
	return &Center{index: make(map[string]int)}
}

// Publish records a notification. A keyed notification that was already
// published is overwritten in place with the latest value.
func (c *Center) Publish(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.Key != "" {
		if i, ok := c.index[n.Key]; ok {
			c.list[i] = n
			return
		}
		c.index[n.Key] = len(c.list)
	}
	c.list = append(c.list, n)
}

// Snapshot returns a copy of the retained notifications in publish order.
func (c *Center) Snapshot() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.list))
	copy(out, c.list)
	return out
}

// Clear drops all retained notifications.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list = nil
	c.index = make(map[string]int)
}

func lowStockNotification(p product.Product) Notification {
	return Notification{
		Kind:    KindLowStock,
		Key:     p.ID,
		Message: fmt.Sprintf("%s is low on stock: %d left", p.Name, p.Stock),
	}
}
