// Package describe generates product descriptions through a hosted
// text-generation endpoint.
package describe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// ErrNoCredential is returned when no bearer credential is configured. No
// request is attempted in that case.
var ErrNoCredential = errors.New("text generation credential is not configured")

// ErrBusy is returned when a generation is already in flight. Callers guard
// duplicate submissions instead of queueing them.
var ErrBusy = errors.New("a generation request is already in flight")

// Fixed sampling parameters sent with every request.
const (
	maxNewTokens = 120
	temperature  = 0.7
	topK         = 50
	topP         = 0.95
)

// Generator calls the text-generation endpoint.
type Generator struct {
	endpoint string
	token    string
	http     *http.Client

	inFlight atomic.Bool
}

// NewGenerator creates a Generator for the given endpoint. token may be
// empty, in which case every Generate call fails locally with
// ErrNoCredential.
func NewGenerator(endpoint, token string) *Generator {
	return &Generator{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate produces a description for the named product. At most one
// request is in flight at a time; concurrent calls fail with ErrBusy.
func (g *Generator) Generate(ctx context.Context, name string, category product.Category) (string, error) {
	if g.token == "" {
		return "", ErrNoCredential
	}
	if !g.inFlight.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer g.inFlight.Store(false)

	prompt := fmt.Sprintf("Write a short, appealing product description for %q in the %s category.", name, category)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(encodeRequest(prompt)))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "call text generation endpoint")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", errors.Errorf("text generation endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}

	text, err := decodeResponse(body)
	if err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return text, nil
}

func encodeRequest(prompt string) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("inputs")
	e.Str(prompt)
	e.FieldStart("parameters")
	e.ObjStart()
	e.FieldStart("max_new_tokens")
	e.Int(maxNewTokens)
	e.FieldStart("temperature")
	e.Float64(temperature)
	e.FieldStart("top_k")
	e.Int(topK)
	e.FieldStart("top_p")
	e.Float64(topP)
	e.ObjEnd()
	e.ObjEnd()
	return e.Bytes()
}

// decodeResponse extracts generated_text from the endpoint's response, which
// is an array of generation objects.
func decodeResponse(data []byte) (string, error) {
	d := jx.DecodeBytes(data)
	var text string
	if err := d.Arr(func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "generated_text" {
				return d.Skip()
			}
			s, err := d.Str()
			if err != nil {
				return err
			}
			if text == "" {
				text = s
			}
			return nil
		})
	}); err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("response contained no generated text")
	}
	return text, nil
}
