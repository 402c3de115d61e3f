package models

import "errors"

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidOrder      = errors.New("invalid order")
)
