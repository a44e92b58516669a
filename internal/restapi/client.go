// Package restapi implements the product repository and account list clients
// over the backend's REST surface. Each operation performs exactly one
// request: no retries, no backoff. Retry policy belongs to the caller.
package restapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/storekeep/storekeep/internal/domain/account"
	"github.com/storekeep/storekeep/internal/domain/product"
)

const (
	defaultUserAgent = "storekeep/0.1"
	requestTimeout   = 10 * time.Second
)

// StatusError is a transport failure carrying the backend status code, so
// callers can distinguish rate-limit and server-busy conditions from hard
// failures.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
}

// Busy reports whether the backend asked the client to slow down or retry
// later (429 or 503).
func (e *StatusError) Busy() bool {
	return e.Status == http.StatusTooManyRequests || e.Status == http.StatusServiceUnavailable
}

// Client talks to the backend REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

var (
	_ product.Repository = (*Client)(nil)
	_ account.Repository = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient builds a Client for the given base URL. A bare host:port is
// treated as http.
func NewClient(base string, opts ...Option) (*Client, error) {
	u, err := parseBaseURL(base)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches the full product collection.
func (c *Client) List(ctx context.Context) ([]product.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeProducts(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return items, nil
}

// Create posts a candidate (id omitted) and returns the created record with
// its backend-assigned id.
func (c *Client) Create(ctx context.Context, p product.Product) (*product.Product, error) {
	body, err := c.do(ctx, http.MethodPost, "/products", encodeProduct(p, false))
	if err != nil {
		return nil, err
	}
	created, err := decodeProduct(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode created product")
	}
	return &created, nil
}

// Replace puts the full record by id and returns the backend representation.
func (c *Client) Replace(ctx context.Context, p product.Product) (*product.Product, error) {
	body, err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(p.ID), encodeProduct(p, true))
	if err != nil {
		return nil, err
	}
	updated, err := decodeProduct(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode updated product")
	}
	return &updated, nil
}

// Delete removes the record by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil)
	return err
}

// ListAccounts fetches the backend account list.
func (c *Client) ListAccounts(ctx context.Context) ([]account.Account, error) {
	body, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	accounts, err := decodeAccounts(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode accounts")
	}
	return accounts, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + path

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	op := method + " " + path
	if resp.StatusCode == http.StatusNotFound {
		return nil, product.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Op: op, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read response for %s", op)
	}
	return body, nil
}

func parseBaseURL(base string) (*url.URL, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, errors.New("base URL is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base URL %q", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
