package driver

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ DocumentStore = (*FirestoreStore)(nil)

// FirestoreStore is the hosted DocumentStore backed by Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
	logger *zap.Logger
}

// ConnectFirestore creates a Firestore client for projectID. An empty
// credentialsFile falls back to application default credentials.
func ConnectFirestore(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient failed (project=%s): %w", projectID, err)
	}

	logger.Info("Firestore connected", zap.String("project", projectID))

	return NewFirestoreStore(client, logger), nil
}

func NewFirestoreStore(client *firestore.Client, logger *zap.Logger) *FirestoreStore {
	return &FirestoreStore{
		client: client,
		logger: logger,
	}
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := s.client.Collection(collection).Query
	for _, f := range q.Filters {
		if !f.Op.valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, f.Op)
		}
		query = query.Where(f.Field, string(f.Op), f.Value)
	}

	if q.OrderBy != "" {
		direction := firestore.Asc
		if q.Desc {
			direction = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, direction)
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	it := query.Documents(ctx)
	defer it.Stop()

	var results []Document
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		results = append(results, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}

	return results, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if id == "" {
		return nil, ErrDocumentNotFound
	}

	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	if id == "" {
		return ErrDocumentNotFound
	}

	updates := make([]firestore.Update, 0, len(patch))
	for path, value := range patch {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}

	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return nil
	}

	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}

	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
