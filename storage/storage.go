// Package storage holds the durable key/value substrate the cart, wishlist,
// notification and session state persist into.
package storage

import "context"

// Storage is a durable key→string store. Get reports found=false for keys
// that were never set or have been removed.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
