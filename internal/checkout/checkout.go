// Package checkout turns a cart snapshot into a placed order.
package checkout

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PocketStore/internal/shop"
)

const maxIDAttempts = 16

var ErrEmptyCart = errors.New("cart is empty")

// Orders is where placed orders land; *store.OrderStore satisfies it.
type Orders interface {
	Add(o shop.Order) error
}

type Request struct {
	Items    []shop.Product     `json:"items"`
	Shipping shop.Shipping      `json:"shipping"`
	Method   shop.PaymentMethod `json:"method"`
}

func (r Request) Validate() error {
	if len(r.Items) == 0 {
		return ErrEmptyCart
	}
	if err := r.Shipping.Validate(); err != nil {
		return err
	}
	if !r.Method.Valid() {
		return errors.Wrapf(shop.ErrUnknownPaymentMethod, "method=%q", r.Method)
	}
	return nil
}

type Service struct {
	orders Orders
	log    *zap.Logger

	Now   func() time.Time
	NewID func() (string, error)
}

func NewService(orders Orders, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		orders: orders,
		log:    log,
		Now:    time.Now,
		NewID:  trackingID,
	}
}

// Place validates req and records a Processing order for it. The caller
// decides whether to clear the cart afterwards.
func (s *Service) Place(ctx context.Context, req Request) (shop.Order, error) {
	if err := req.Validate(); err != nil {
		return shop.Order{}, err
	}

	items := shop.CloneProducts(req.Items)
	o := shop.Order{
		Items:     items,
		Total:     shop.SumPrices(items),
		Shipping:  req.Shipping,
		Method:    req.Method,
		Timestamp: s.Now().UTC(),
		Status:    shop.StatusProcessing,
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return shop.Order{}, err
		}
		id, err := s.NewID()
		if err != nil {
			return shop.Order{}, errors.Wrap(err, "tracking id")
		}
		o.ID = id

		err = s.orders.Add(o)
		if err == nil {
			s.log.Info("order placed",
				zap.String("order_id", o.ID),
				zap.Int("items", len(o.Items)),
				zap.String("total", o.Total.StringFixed(2)),
				zap.String("method", string(o.Method)),
			)
			return o.Clone(), nil
		}
		if !errors.Is(err, shop.ErrDuplicateOrder) {
			return shop.Order{}, err
		}
		s.log.Debug("tracking id collision", zap.String("order_id", id))
	}

	o.ID = "TRK-" + uuid.NewString()
	if err := s.orders.Add(o); err != nil {
		return shop.Order{}, err
	}
	s.log.Warn("order placed with fallback id", zap.String("order_id", o.ID))
	return o.Clone(), nil
}

// trackingID is TRK followed by six digits.
func trackingID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TRK%d", 100000+n.Int64()), nil
}
