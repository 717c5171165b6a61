package api

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PocketStore/internal/shop"
	"PocketStore/internal/store"
	"PocketStore/pkg/kit"
)

type productReq struct {
	Title       string           `json:"title"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category"`
	Image       *string          `json:"image"`
	Description *string          `json:"description"`
	Rating      *shop.Rating     `json:"rating"`
}

func (req productReq) product() (shop.Product, error) {
	title := strings.TrimSpace(req.Title)
	category := strings.TrimSpace(req.Category)
	if title == "" || category == "" {
		return shop.Product{}, errors.New("title and category are required")
	}
	if req.Price == nil {
		return shop.Product{}, errors.New("price is required")
	}
	return shop.Product{
		Title:       title,
		Price:       *req.Price,
		Category:    category,
		Image:       req.Image,
		Description: req.Description,
		Rating:      req.Rating,
	}, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products := s.Store.Products.List()

	if c := r.URL.Query().Get("category"); c != "" {
		filtered := make([]shop.Product, 0, len(products))
		for _, p := range products {
			if p.Category == c {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}
	p, found := s.Store.Products.Get(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) productStats(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.Products.Stats())
}

func (s *Server) productCategories(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.Products.Categories())
}

func (s *Server) addProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	p, err := req.product()
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	created, err := s.Store.Products.Add(p)
	if err != nil {
		s.writeProductError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}
	var req productReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	p, err := req.product()
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if _, found := s.Store.Products.Get(id); !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	p.ID = id
	if err := s.Store.Products.Update(p); err != nil {
		s.writeProductError(w, r, err)
		return
	}

	updated, _ := s.Store.Products.Get(id)
	kit.WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}
	if _, found := s.Store.Products.Get(id); !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if err := s.Store.Products.Remove(id); err != nil {
		s.writeProductError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) refreshProducts(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.RefreshProducts(r.Context()); err != nil {
		if errors.Is(err, store.ErrLoading) {
			writeLoading(w, r)
			return
		}
		s.Log.Warn("refresh failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Store.Products.List())
}

func (s *Server) writeProductError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shop.ErrNegativePrice):
		kit.WriteError(w, r, http.StatusBadRequest, "price must be non-negative", nil)
		return
	case errors.Is(err, store.ErrLoading):
		writeLoading(w, r)
		return
	}
	s.Log.Error("product mutation failed", zap.Error(err))
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}
