package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ostafen/clover"
	"go.uber.org/zap"
)

var _ DocumentStore = (*CloverStore)(nil)

// CloverStore is an embedded DocumentStore used for local development, the
// CLI and tests. Time values are stored as unix milliseconds.
type CloverStore struct {
	db     *clover.DB
	logger *zap.Logger
	mu     sync.Mutex
}

// ConnectClover opens (or creates) the clover database at path.
func ConnectClover(path string, logger *zap.Logger) (*CloverStore, error) {
	db, err := clover.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clover database: %w", err)
	}

	logger.Info("Clover document store opened", zap.String("path", path))

	return &CloverStore{
		db:     db,
		logger: logger,
	}, nil
}

// DB exposes the underlying clover handle so other components can share it.
func (s *CloverStore) DB() *clover.DB {
	return s.db
}

func (s *CloverStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exists, err := s.db.HasCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return []Document{}, nil
	}

	query := s.db.Query(collection)
	for _, f := range q.Filters {
		criteria, err := cloverCriteria(f)
		if err != nil {
			return nil, err
		}
		query = query.Where(criteria)
	}

	if q.OrderBy != "" {
		direction := 1
		if q.Desc {
			direction = -1
		}
		query = query.Sort(clover.SortOption{Field: q.OrderBy, Direction: direction})
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	docs, err := query.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	results := make([]Document, 0, len(docs))
	for _, doc := range docs {
		converted, err := s.convert(doc)
		if err != nil {
			s.logger.Warn("Skipping undecodable document",
				zap.String("collection", collection),
				zap.String("id", doc.ObjectId()),
				zap.Error(err))
			continue
		}
		results = append(results, *converted)
	}

	return results, nil
}

func (s *CloverStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.findByID(collection, id)
	if err != nil {
		return nil, err
	}

	return s.convert(doc)
}

func (s *CloverStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := s.ensureCollection(collection); err != nil {
		return "", err
	}

	doc := clover.NewDocument()
	for key, value := range data {
		doc.Set(key, normalizeValue(value))
	}

	id, err := s.db.InsertOne(collection, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

func (s *CloverStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.findByID(collection, id); err != nil {
		return err
	}

	updates := make(map[string]interface{}, len(patch))
	for key, value := range patch {
		updates[key] = normalizeValue(value)
	}

	if err := s.db.Query(collection).UpdateById(id, updates); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return nil
}

func (s *CloverStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.findByID(collection, id); err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil
		}
		return err
	}

	if err := s.db.Query(collection).DeleteById(id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

func (s *CloverStore) Close() error {
	return s.db.Close()
}

func (s *CloverStore) ensureCollection(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.db.HasCollection(collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	if err = s.db.CreateCollection(collection); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func (s *CloverStore) findByID(collection, id string) (*clover.Document, error) {
	exists, err := s.db.HasCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists || id == "" {
		return nil, ErrDocumentNotFound
	}

	doc, err := s.db.Query(collection).FindById(id)
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	return doc, nil
}

func (s *CloverStore) convert(doc *clover.Document) (*Document, error) {
	data := make(map[string]interface{})
	if err := doc.Unmarshal(&data); err != nil {
		return nil, err
	}

	// clover 內部欄位
	delete(data, "_id")

	return &Document{ID: doc.ObjectId(), Data: data}, nil
}

func cloverCriteria(f Filter) (*clover.Criteria, error) {
	field := clover.Field(f.Field)
	value := normalizeValue(f.Value)

	switch f.Op {
	case OpEqual:
		return field.Eq(value), nil
	case OpNotEqual:
		return field.Neq(value), nil
	case OpLess:
		return field.Lt(value), nil
	case OpLessOrEqual:
		return field.LtEq(value), nil
	case OpGreater:
		return field.Gt(value), nil
	case OpGreaterOrEqual:
		return field.GtEq(value), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, f.Op)
	}
}

// normalizeValue maps values onto the types clover compares consistently.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.UnixMilli()
	case *time.Time:
		if val == nil {
			return nil
		}
		return normalizeValue(*val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
