package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
)

var _ Storage = (*Postgres)(nil)

const createStorageTable = `
CREATE TABLE IF NOT EXISTS client_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres keeps values in the client_storage table.
type Postgres struct {
	conn   driver.PostgresPool
	tm     *driver.TransactionManager
	logger *zap.Logger
}

func NewPostgres(conn driver.PostgresPool, tm *driver.TransactionManager, logger *zap.Logger) *Postgres {
	return &Postgres{
		conn:   conn,
		tm:     tm,
		logger: logger,
	}
}

// EnsureSchema creates the backing table when it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.conn.Exec(ctx, createStorageTable); err != nil {
		return fmt.Errorf("failed to create client_storage table: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.conn.QueryRow(ctx, `SELECT value FROM client_storage WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		p.logger.Error("Failed to read storage key", zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	err := p.tm.ExecuteSerializableTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO client_storage (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			key, value)
		return err
	})
	if err != nil {
		p.logger.Error("Failed to write storage key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	err := p.tm.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM client_storage WHERE key = $1`, key)
		return err
	})
	if err != nil {
		p.logger.Error("Failed to remove storage key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
