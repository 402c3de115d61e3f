package cart

import "errors"

var (
	ErrInvalidItem = errors.New("invalid line item")
	ErrNotCartKey  = errors.New("quantities only apply to the cart")
)
