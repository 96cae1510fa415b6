package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/logistic/internal/core"
)

var importColumns = []string{"run_id", "kind", "file_name", "line_no", "payload"}

// Importer writes validated batches to logistic_import_row.
type Importer struct {
	pool *pgxpool.Pool
}

// NewImporter returns an Importer backed by pool.
func NewImporter(pool *pgxpool.Pool) *Importer {
	return &Importer{pool: pool}
}

// Import implements core.Importer. A batch with missing required fields is
// rejected as a whole and nothing is written; the result carries the trace.
// Valid batches are copied in a single transaction.
func (im *Importer) Import(ctx context.Context, batch core.ImportBatch) (core.ImportResult, error) {
	if errs := core.ValidateRequired(batch.Records, batch.Required); len(errs) > 0 {
		return core.ImportResult{Valid: false, Trace: core.Trace(errs)}, nil
	}

	rows, err := importRows(batch)
	if err != nil {
		return core.ImportResult{}, err
	}

	tx, err := im.pool.Begin(ctx)
	if err != nil {
		return core.ImportResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"logistic_import_row"}, importColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return core.ImportResult{}, fmt.Errorf("copy %s rows: %w", batch.FileName, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return core.ImportResult{}, fmt.Errorf("commit: %w", err)
	}
	return core.ImportResult{Valid: true, Imported: int(n)}, nil
}

func importRows(batch core.ImportBatch) ([][]any, error) {
	rows := make([][]any, len(batch.Records))
	for i, rec := range batch.Records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode line %d: %w", rec.Line, err)
		}
		rows[i] = []any{batch.RunID, batch.Kind, batch.FileName, int32(rec.Line), payload}
	}
	return rows, nil
}
