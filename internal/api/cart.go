package api

import (
	"net/http"

	"PocketStore/internal/shop"
	"PocketStore/pkg/kit"
)

type cartResp struct {
	Items []shop.Product `json:"items"`
	Count int            `json:"count"`
	Total string         `json:"total"`
}

type cartAddReq struct {
	ProductID int64 `json:"product_id"`
}

func (s *Server) cartSnapshot() cartResp {
	items := s.Store.Cart.Items()
	return cartResp{
		Items: items,
		Count: len(items),
		Total: shop.SumPrices(items).StringFixed(2),
	}
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.cartSnapshot())
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cartAddReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	p, found := s.Store.Products.Get(req.ProductID)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"product_id": req.ProductID})
		return
	}

	s.Store.Cart.Add(p)
	kit.WriteJSON(w, http.StatusCreated, s.cartSnapshot())
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}

	removed := s.Store.Cart.Remove(id)
	kit.WriteJSON(w, http.StatusOK, struct {
		Removed int `json:"removed"`
		cartResp
	}{removed, s.cartSnapshot()})
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.Store.Cart.Clear()
	w.WriteHeader(http.StatusNoContent)
}
