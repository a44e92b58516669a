package restapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekeep/storekeep/internal/domain/account"
	"github.com/storekeep/storekeep/internal/domain/product"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	return c
}

func TestList_DecodesBackendShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		// Mixed shapes: numeric id, string price, unknown extra field.
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "Widget", "category": "Electronics", "price": 19.99, "stock": 5, "description": "", "lastUpdated": "2024-06-01T12:00:00Z"},
			{"id": "ab12", "name": "Go in Action", "category": "Books", "price": "29.99", "stock": 12, "description": "d", "url": "https://x.test/b", "extra": true}
		]`))
	})

	items, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "1", items[0].ID)
	assert.True(t, decimal.RequireFromString("19.99").Equal(items[0].Price))
	assert.Equal(t, 5, items[0].Stock)
	assert.False(t, items[0].UpdatedAt.IsZero())

	assert.Equal(t, "ab12", items[1].ID)
	assert.Equal(t, product.CategoryBooks, items[1].Category)
	assert.True(t, decimal.RequireFromString("29.99").Equal(items[1].Price))
	assert.Equal(t, "https://x.test/b", items[1].URL)
}

func TestCreate_OmitsIDAndReturnsAssigned(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/products", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasID := body["id"]
		assert.False(t, hasID, "candidates must not carry an id")
		assert.Equal(t, "Widget", body["name"])
		assert.InDelta(t, 19.99, body["price"], 0.0001)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "p9", "name": "Widget", "category": "Electronics", "price": 19.99, "stock": 3, "description": ""}`))
	})

	created, err := c.Create(context.Background(), product.Product{
		Name:     "Widget",
		Category: product.CategoryElectronics,
		Price:    decimal.RequireFromString("19.99"),
		Stock:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, "p9", created.ID)
}

func TestReplace_PutsByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/products/p1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "p1", "name": "Widget", "category": "Electronics", "price": 9.99, "stock": 7, "description": ""}`))
	})

	updated, err := c.Replace(context.Background(), product.Product{
		ID:       "p1",
		Name:     "Widget",
		Category: product.CategoryElectronics,
		Price:    decimal.RequireFromString("9.99"),
		Stock:    7,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
}

func TestDelete_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestStatusError_CarriesCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.List(context.Background())

	var sErr *StatusError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, http.StatusTooManyRequests, sErr.Status)
	assert.True(t, sErr.Busy())
}

func TestStatusError_HardFailureNotBusy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.List(context.Background())

	var sErr *StatusError
	require.ErrorAs(t, err, &sErr)
	assert.False(t, sErr.Busy())
}

func TestListAccounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		_, _ = w.Write([]byte(`[{"username": "admin", "password": "secret", "role": "admin"}]`))
	})

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, account.RoleAdmin, accounts[0].Role)
}

func TestParseBaseURL(t *testing.T) {
	c, err := NewClient("localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "http", c.baseURL.Scheme)

	_, err = NewClient("   ")
	require.Error(t, err)
}
