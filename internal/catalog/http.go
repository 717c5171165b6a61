package catalog

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PocketStore/internal/shop"
	"PocketStore/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	if s.Log == nil {
		s.Log = zap.NewNop()
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Get("/products/categories", s.categories)
	r.Get("/products/category/{category}", s.byCategory)
	r.Get("/products/{id}", s.get)

	return r
}

// list honours the fakestore "limit" and "sort=desc" query parameters.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, ok := s.listAll(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Get("sort") == "desc" {
		slices.Reverse(products)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad limit", nil)
			return
		}
		if n < len(products) {
			products = products[:n]
		}
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	products, ok := s.listAll(w, r)
	if !ok {
		return
	}

	out := []string{}
	for _, p := range products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) byCategory(w http.ResponseWriter, r *http.Request) {
	products, ok := s.listAll(w, r)
	if !ok {
		return
	}

	category := chi.URLParam(r, "category")
	out := make([]shop.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) listAll(w http.ResponseWriter, r *http.Request) ([]shop.Product, bool) {
	products, err := s.Store.ListSortedByID(r.Context())
	if err != nil {
		s.Log.Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return nil, false
	}
	return products, true
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}

	p, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}
