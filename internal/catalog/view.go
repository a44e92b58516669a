package catalog

import (
	"sort"
	"strings"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// Sort selects the ordering of a derived view.
type Sort int

const (
	// SortInsertion keeps the collection's insertion order.
	SortInsertion Sort = iota
	SortPriceAsc
	SortPriceDesc
	SortNameAsc
	SortNameDesc
)

// ParseSort maps the user-facing sort names to a Sort value. Unknown or
// empty values fall back to insertion order.
func ParseSort(s string) Sort {
	switch strings.ToLower(s) {
	case "price", "price-asc":
		return SortPriceAsc
	case "price-desc":
		return SortPriceDesc
	case "name", "name-asc":
		return SortNameAsc
	case "name-desc":
		return SortNameDesc
	}
	return SortInsertion
}

// Query describes a derived view of the collection. The zero value selects
// everything in insertion order.
type Query struct {
	// Name filters by case-insensitive substring match.
	Name string
	// Category filters by exact category when non-empty.
	Category product.Category
	Sort     Sort
}

// View produces a read-only projection of the current collection. It is a
// pure function of the collection and the query: it never mutates the base
// collection, and ties keep their relative order.
func (m *Manager) View(q Query) []product.Product {
	items := m.Items()

	if q.Name != "" || q.Category != "" {
		needle := strings.ToLower(q.Name)
		filtered := items[:0]
		for _, p := range items {
			if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
				continue
			}
			if q.Category != "" && p.Category != q.Category {
				continue
			}
			filtered = append(filtered, p)
		}
		items = filtered
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Price.LessThan(items[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[j].Price.LessThan(items[i].Price)
		})
	case SortNameAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
	case SortNameDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[j].Name) < strings.ToLower(items[i].Name)
		})
	}

	return items
}

// LowStockItems returns the items currently below the stock threshold, in
// insertion order.
func (m *Manager) LowStockItems() []product.Product {
	var low []product.Product
	for _, p := range m.Items() {
		if p.LowStock() {
			low = append(low, p)
		}
	}
	return low
}
