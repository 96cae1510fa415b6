package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/logistic/internal/config"
)

// ConfigStore reads scoped settings from logistic_config, keyed by
// config.ScopedKey.
type ConfigStore struct {
	pool *pgxpool.Pool
}

// NewConfigStore returns a ConfigStore backed by pool.
func NewConfigStore(pool *pgxpool.Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

var _ config.Scoped = (*ConfigStore)(nil)

// Value implements config.Scoped. A missing key yields "".
func (s *ConfigStore) Value(ctx context.Context, group, field string) (string, error) {
	key := config.ScopedKey(group, field)

	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM logistic_config WHERE path = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// Set upserts a setting.
func (s *ConfigStore) Set(ctx context.Context, group, field, value string) error {
	key := config.ScopedKey(group, field)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO logistic_config (path, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
