package shop

import "github.com/pkg/errors"

type Status string

const (
	StatusProcessing     Status = "Processing"
	StatusPacked         Status = "Packed"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
)

// StatusCycle is the fixed order a status advances through.
var StatusCycle = []Status{
	StatusProcessing,
	StatusPacked,
	StatusOutForDelivery,
	StatusDelivered,
}

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

func (s Status) Valid() bool {
	return statusIndex(s) >= 0
}

// TransitionPolicy returns the status that follows current.
type TransitionPolicy func(current Status) (Status, error)

// CyclicTransition advances through StatusCycle and wraps from Delivered back
// to Processing.
func CyclicTransition(current Status) (Status, error) {
	i := statusIndex(current)
	if i < 0 {
		return "", errors.Wrapf(ErrUnknownStatus, "status=%q", current)
	}
	return StatusCycle[(i+1)%len(StatusCycle)], nil
}

// TerminalTransition advances through StatusCycle and stops at Delivered.
func TerminalTransition(current Status) (Status, error) {
	i := statusIndex(current)
	if i < 0 {
		return "", errors.Wrapf(ErrUnknownStatus, "status=%q", current)
	}
	if i == len(StatusCycle)-1 {
		return "", errors.Wrapf(ErrInvalidTransition, "%q is terminal", current)
	}
	return StatusCycle[i+1], nil
}

func statusIndex(s Status) int {
	for i, v := range StatusCycle {
		if v == s {
			return i
		}
	}
	return -1
}
