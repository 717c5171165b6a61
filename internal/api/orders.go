package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PocketStore/internal/shop"
	"PocketStore/internal/store"
	"PocketStore/pkg/kit"
)

type statusReq struct {
	Status shop.Status `json:"status"`
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.Orders.List())
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, found := s.Store.Orders.Get(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) advanceOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.Store.Orders.Advance(chi.URLParam(r, "id"))
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	o, err := s.Store.Orders.UpdateStatus(chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrLoading):
		writeLoading(w, r)
	case errors.Is(err, shop.ErrOrderNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
	case errors.Is(err, shop.ErrUnknownStatus):
		kit.WriteError(w, r, http.StatusBadRequest, "unknown status",
			map[string]any{"allowed": shop.StatusCycle})
	case errors.Is(err, shop.ErrInvalidTransition):
		kit.WriteError(w, r, http.StatusConflict, "invalid status transition", nil)
	default:
		s.Log.Error("order mutation failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
