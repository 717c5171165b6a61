package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PocketStore/internal/checkout"
	"PocketStore/internal/shop"
	"PocketStore/internal/store"
	"PocketStore/pkg/kit"
)

const readyTimeout = 1 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Store    *store.Store
	Checkout *checkout.Service
	KV       Pinger
	Log      *zap.Logger
}

func (s *Server) Routes(checkoutLimiter *kit.IPRateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)
	r.Get("/state", s.state)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.listProducts)
		r.Get("/stats", s.productStats)
		r.Get("/categories", s.productCategories)
		r.Get("/{id}", s.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(s.requireLoaded)
			r.Post("/", s.addProduct)
			r.Post("/refresh", s.refreshProducts)
			r.Put("/{id}", s.updateProduct)
			r.Delete("/{id}", s.removeProduct)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", s.listOrders)
		r.Get("/{id}", s.getOrder)

		r.Group(func(r chi.Router) {
			r.Use(s.requireLoaded)
			r.Post("/{id}/advance", s.advanceOrder)
			r.Put("/{id}/status", s.updateOrderStatus)
		})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", s.getCart)
		r.Post("/", s.addToCart)
		r.Delete("/", s.clearCart)
		r.Delete("/{id}", s.removeFromCart)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireLoaded)
		if checkoutLimiter != nil {
			r.Use(checkoutLimiter.Middleware)
		}
		r.Post("/checkout", s.checkout)
	})

	return r
}

// requireLoaded answers 503 while the store is hydrating or refreshing, so a
// write cannot be acknowledged and then replaced by the loaded state.
func (s *Server) requireLoaded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Store.Loading() {
			writeLoading(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	kit.WriteError(w, r, http.StatusServiceUnavailable, "loading", nil)
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.Store.Loading() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "loading", nil)
		return
	}
	if s.KV != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.KV.Ping(ctx); err != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

type stateResp struct {
	Loading   bool           `json:"loading"`
	Error     string         `json:"error,omitempty"`
	Products  []shop.Product `json:"products"`
	Orders    []shop.Order   `json:"orders"`
	CartItems int            `json:"cart_items"`
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	resp := stateResp{
		Loading:   s.Store.Loading(),
		Products:  s.Store.Products.List(),
		Orders:    s.Store.Orders.List(),
		CartItems: s.Store.Cart.Len(),
	}
	if err := s.Store.LastError(); err != nil {
		resp.Error = err.Error()
	}
	kit.WriteJSON(w, http.StatusOK, resp)
}

type checkoutReq struct {
	Shipping  shop.Shipping      `json:"shipping"`
	Method    shop.PaymentMethod `json:"method"`
	ClearCart bool               `json:"clear_cart"`
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	var o shop.Order
	err := s.Store.Cart.Settle(req.ClearCart, func(items []shop.Product) error {
		var err error
		o, err = s.Checkout.Place(r.Context(), checkout.Request{
			Items:    items,
			Shipping: req.Shipping,
			Method:   req.Method,
		})
		return err
	})
	if err != nil {
		s.writeCheckoutError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrLoading):
		writeLoading(w, r)
	case errors.Is(err, checkout.ErrEmptyCart):
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
	case errors.Is(err, shop.ErrShippingRequired):
		kit.WriteError(w, r, http.StatusBadRequest, "shipping name, address and phone are required", nil)
	case errors.Is(err, shop.ErrUnknownPaymentMethod):
		kit.WriteError(w, r, http.StatusBadRequest, "unknown payment method",
			map[string]any{"allowed": shop.PaymentMethods})
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.Log.Error("checkout failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
