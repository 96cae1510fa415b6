package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/logistic/internal/core"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// LogStore keeps one row per run in logistic_log.
type LogStore struct {
	pool *pgxpool.Pool
}

// NewLogStore returns a LogStore backed by pool.
func NewLogStore(pool *pgxpool.Pool) *LogStore {
	return &LogStore{pool: pool}
}

// LogFilter narrows List. A zero Limit uses the default page size.
type LogFilter struct {
	Kind  string
	Limit int
}

func (f LogFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultLogLimit
	case f.Limit > maxLogLimit:
		return maxLogLimit
	default:
		return f.Limit
	}
}

// Save implements core.LogStore.
func (s *LogStore) Save(ctx context.Context, r *core.RunReport) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO logistic_log (id, run_id, status, messages, entity_type, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.RunID, string(r.Status), r.Message(), r.EntityType, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert logistic_log: %w", err)
	}
	return nil
}

// List returns the most recent reports first.
func (s *LogStore) List(ctx context.Context, f LogFilter) ([]core.RunReport, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, run_id, status, messages, entity_type, started_at, finished_at
		FROM logistic_log
		WHERE $1 = '' OR entity_type = $1
		ORDER BY started_at DESC, id
		LIMIT $2`,
		f.Kind, f.limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("query logistic_log: %w", err)
	}
	defer rows.Close()

	var out []core.RunReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Get returns one report by id, or ErrNotFound.
func (s *LogStore) Get(ctx context.Context, id string) (*core.RunReport, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, run_id, status, messages, entity_type, started_at, finished_at
		FROM logistic_log
		WHERE id = $1`, id)

	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func scanReport(row pgx.Row) (*core.RunReport, error) {
	var (
		r        core.RunReport
		status   string
		messages string
	)
	if err := row.Scan(&r.ID, &r.RunID, &status, &messages, &r.EntityType, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	r.Status = core.Status(status)
	r.Messages = splitMessages(messages)
	return &r, nil
}

func splitMessages(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
