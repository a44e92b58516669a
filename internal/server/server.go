// Package server exposes storage as the REST surface the storefront and the
// admin tooling talk to: /products, /users and the health probes.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/storekeep/storekeep/internal/domain/product"
	"github.com/storekeep/storekeep/internal/storage"
	"github.com/storekeep/storekeep/pkg/health"
)

// Server handles the catalog REST API over a storage backend.
type Server struct {
	store storage.Store
}

// New creates a Server over store.
func New(store storage.Store) *Server {
	return &Server{store: store}
}

// Router builds the chi router. Health endpoints are wired when hlth is not
// nil so tests can mount the API surface alone.
func (s *Server) Router(hlth *health.Service) chi.Router {
	r := chi.NewRouter()

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.listProducts)
		r.Post("/", s.createProduct)
		r.Get("/{id}", s.getProduct)
		r.Put("/{id}", s.replaceProduct)
		r.Delete("/{id}", s.deleteProduct)
	})
	r.Get("/users", s.listUsers)

	if hlth != nil {
		r.Get("/livez", hlth.Livez)
		r.Get("/readyz", hlth.Readyz)
	}
	return r
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]productOut, len(items))
	for i, p := range items {
		out[i] = productToWire(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	items, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, p := range items {
		if p.ID == id {
			writeJSON(w, http.StatusOK, productToWire(p))
			return
		}
	}
	s.writeError(w, r, product.ErrNotFound)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(r)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}

	created, err := s.store.InsertProduct(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, productToWire(*created))
}

func (s *Server) replaceProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(r)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	p.ID = chi.URLParam(r, "id")

	replaced, err := s.store.ReplaceProduct(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productToWire(*replaced))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]accountOut, len(accounts))
	for i, a := range accounts {
		out[i] = accountOut{Username: a.Username, Password: a.Password, Role: string(a.Role)}
	}
	writeJSON(w, http.StatusOK, out)
}

type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

func badRequest(err error) error { return errBadRequest{err: err} }

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var bad errBadRequest
	switch {
	case errors.Is(err, product.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &bad):
		code = http.StatusBadRequest
	}

	if code >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, code, apiError{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
