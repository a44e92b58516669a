package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// flexID accepts a JSON string or number, since hand-edited data files mix
// both shapes.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type productIn struct {
	ID          flexID          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	LastUpdated string          `json:"lastUpdated"`
}

// productOut renders a product in the wire shape: price as a bare number,
// optional fields omitted when empty.
type productOut struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       json.RawMessage `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	URL         string          `json:"url,omitempty"`
	LastUpdated string          `json:"lastUpdated,omitempty"`
}

type accountOut struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func decodeProduct(r *http.Request) (product.Product, error) {
	var in productIn
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return product.Product{}, errors.Wrap(err, "decode product")
	}

	p := product.Product{
		ID:          string(in.ID),
		Name:        in.Name,
		Category:    product.Category(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		URL:         in.URL,
	}
	if in.LastUpdated != "" {
		// Malformed timestamps are dropped, not rejected.
		if ts, err := time.Parse(time.RFC3339, in.LastUpdated); err == nil {
			p.UpdatedAt = ts
		}
	}
	return p, nil
}

func productToWire(p product.Product) productOut {
	out := productOut{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Price:       json.RawMessage(p.Price.String()),
		Stock:       p.Stock,
		Description: p.Description,
		URL:         p.URL,
	}
	if !p.UpdatedAt.IsZero() {
		out.LastUpdated = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}
