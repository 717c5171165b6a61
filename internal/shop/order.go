package shop

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderIDRequired      = errors.New("order id is required")
	ErrDuplicateOrder       = errors.New("order id already exists")
	ErrShippingRequired     = errors.New("shipping name, address and phone are required")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

type PaymentMethod string

const (
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
	PaymentCOD  PaymentMethod = "cod"
	PaymentNet  PaymentMethod = "net"
)

var PaymentMethods = []PaymentMethod{PaymentUPI, PaymentCard, PaymentCOD, PaymentNet}

func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

type Shipping struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (s Shipping) Validate() error {
	if strings.TrimSpace(s.Name) == "" ||
		strings.TrimSpace(s.Address) == "" ||
		strings.TrimSpace(s.Phone) == "" {
		return ErrShippingRequired
	}
	return nil
}

// Order is a placed purchase. Items and Total are fixed at checkout; only
// Status changes afterwards.
type Order struct {
	ID        string          `json:"id"`
	Items     []Product       `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Shipping  Shipping        `json:"shipping"`
	Method    PaymentMethod   `json:"method"`
	Timestamp time.Time       `json:"timestamp"`
	Status    Status          `json:"status"`
}

func (o Order) Clone() Order {
	out := o
	out.Items = CloneProducts(o.Items)
	return out
}
