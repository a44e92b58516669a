// Package dashboard computes the summary metrics shown on the admin
// dashboard. Everything here is a pure function over a collection snapshot;
// chart rendering is the presentation layer's problem.
package dashboard

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// Summary holds the dashboard headline numbers.
type Summary struct {
	// Products is the total number of catalog items.
	Products int
	// StockUnits is the sum of all stock counts.
	StockUnits int
	// InventoryValue is the sum of price*stock over the collection.
	InventoryValue decimal.Decimal
	// LowStock counts items below the stock threshold.
	LowStock int
	// ByCategory counts items per category.
	ByCategory map[product.Category]int
	// MeanPrice and MedianPrice are zero for an empty collection.
	MeanPrice   float64
	MedianPrice float64
}

// Summarize computes the Summary for a collection snapshot.
func Summarize(items []product.Product) Summary {
	s := Summary{
		Products:       len(items),
		InventoryValue: decimal.Zero,
		ByCategory:     make(map[product.Category]int),
	}

	prices := make([]float64, 0, len(items))
	for _, p := range items {
		s.StockUnits += p.Stock
		s.InventoryValue = s.InventoryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
		if p.LowStock() {
			s.LowStock++
		}
		s.ByCategory[p.Category]++
		prices = append(prices, p.Price.InexactFloat64())
	}

	if len(prices) > 0 {
		// Mean and Median only fail on empty input, which is excluded here.
		s.MeanPrice, _ = stats.Mean(prices)
		s.MedianPrice, _ = stats.Median(prices)
	}
	return s
}
