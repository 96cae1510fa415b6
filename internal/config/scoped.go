package config

import (
	"context"
	"strings"
)

// ScopedEnvPrefix marks environment variables that feed MapScoped.
// LOGISTIC_CONNECTION_HOST resolves (connection, host);
// LOGISTIC_IMPORT_STOCK_PATH resolves (import, stock_path).
const ScopedEnvPrefix = "LOGISTIC_"

// Scoped resolves per-import settings addressed by a (group, field) pair such as
// (connection, host) or (import, stock_file_pattern). An unset value is returned
// as "" with a nil error.
type Scoped interface {
	Value(ctx context.Context, group, field string) (string, error)
}

// ScopedKey returns the canonical storage key for a (group, field) pair.
func ScopedKey(group, field string) string {
	return "logistic/" + group + "/" + field
}

// MapScoped is a static Scoped provider keyed by ScopedKey.
type MapScoped map[string]string

// Value implements Scoped.
func (m MapScoped) Value(_ context.Context, group, field string) (string, error) {
	return m[ScopedKey(group, field)], nil
}

// Set stores a value and returns the map for chaining in tests and setup code.
func (m MapScoped) Set(group, field, value string) MapScoped {
	m[ScopedKey(group, field)] = value
	return m
}

// ScopedFromEnv builds a MapScoped from KEY=VALUE pairs (as returned by os.Environ),
// keeping only LOGISTIC_-prefixed variables. The first segment after the prefix
// is the group; the remainder is the field. Both are lowercased.
func ScopedFromEnv(environ []string) MapScoped {
	m := make(MapScoped)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, ScopedEnvPrefix) {
			continue
		}
		group, field, ok := strings.Cut(strings.TrimPrefix(key, ScopedEnvPrefix), "_")
		if !ok || group == "" || field == "" {
			continue
		}
		m.Set(strings.ToLower(group), strings.ToLower(field), value)
	}
	return m
}

// Chain consults providers in order and returns the first non-empty value.
// An error from any provider stops the lookup.
type Chain []Scoped

// Value implements Scoped.
func (c Chain) Value(ctx context.Context, group, field string) (string, error) {
	for _, p := range c {
		v, err := p.Value(ctx, group, field)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}
