// Package transfer serializes the product collection to portable text
// formats and parses uploaded CSV back into candidate records.
//
// The formatters are pure functions over an in-memory collection. Callers
// that want export to reflect the latest backend state use the Refresh*
// composites, which make the network refresh explicit instead of hiding it
// inside a nominally pure transform.
package transfer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/gocarina/gocsv"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// CSVHeader is the fixed header line shared by export and bulk import.
const CSVHeader = "ID,Name,Category,Price,Stock,Description,URL,UpdatedAt"

// csvRow fixes the exported column set and order to match CSVHeader.
type csvRow struct {
	ID          string `csv:"ID"`
	Name        string `csv:"Name"`
	Category    string `csv:"Category"`
	Price       string `csv:"Price"`
	Stock       int    `csv:"Stock"`
	Description string `csv:"Description"`
	URL         string `csv:"URL"`
	UpdatedAt   string `csv:"UpdatedAt"`
}

// ExportCSV renders the collection as delimited text with a fixed 8-column
// header. Fields containing delimiters, quotes or newlines are quoted, with
// internal quotes escaped by doubling.
func ExportCSV(items []product.Product) (string, error) {
	rows := make([]csvRow, len(items))
	for i, p := range items {
		rows[i] = csvRow{
			ID:          p.ID,
			Name:        p.Name,
			Category:    string(p.Category),
			Price:       p.Price.String(),
			Stock:       p.Stock,
			Description: p.Description,
			URL:         p.URL,
			UpdatedAt:   formatUpdatedAt(p.UpdatedAt),
		}
	}
	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return "", errors.Wrap(err, "marshal csv")
	}
	return out, nil
}

func formatUpdatedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Refresher reloads a collection from the backend and exposes a snapshot of
// it. *catalog.Manager satisfies this.
type Refresher interface {
	Load(ctx context.Context) error
	Items() []product.Product
}

// RefreshExportCSV reloads the collection from the backend, then exports it.
func RefreshExportCSV(ctx context.Context, src Refresher) (string, error) {
	if err := src.Load(ctx); err != nil {
		return "", errors.Wrap(err, "refresh before export")
	}
	return ExportCSV(src.Items())
}

// RefreshExportDocument reloads the collection, then renders the paginated
// document.
func RefreshExportDocument(ctx context.Context, src Refresher) (string, error) {
	if err := src.Load(ctx); err != nil {
		return "", errors.Wrap(err, "refresh before export")
	}
	return ExportDocument(src.Items()), nil
}
