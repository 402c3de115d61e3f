package driver

import (
	"context"
	"errors"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidFilter    = errors.New("invalid filter operator")
)

// Operator is a comparison supported by every document store.
type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
)

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

func Where(field string, op Operator, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query selects documents from one collection. Zero Limit means unlimited.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Document is an opaque record plus its stable identifier.
type Document struct {
	ID   string
	Data map[string]any
}

// DocumentStore is the hosted document database the storefront reads and
// writes. Update merges the given fields into the stored document.
type DocumentStore interface {
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Insert(ctx context.Context, collection string, data map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

func (op Operator) valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		return true
	}
	return false
}
