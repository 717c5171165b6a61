package shop

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrCorruptBlob = errors.New("corrupt blob")

func EncodeProducts(products []Product) (string, error) {
	return encode(products)
}

func DecodeProducts(blob string) ([]Product, error) {
	out := []Product{}
	if err := decode(blob, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeOrders(orders []Order) (string, error) {
	return encode(orders)
}

func DecodeOrders(blob string) ([]Order, error) {
	out := []Order{}
	if err := decode(blob, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode blob")
	}
	return string(b), nil
}

func decode(blob string, v any) error {
	if err := json.Unmarshal([]byte(blob), v); err != nil {
		return errors.Wrap(ErrCorruptBlob, err.Error())
	}
	return nil
}
