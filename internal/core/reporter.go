package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LogStore persists run reports.
type LogStore interface {
	Save(ctx context.Context, report *RunReport) error
}

// Message joins the accumulated messages with newlines.
func (r *RunReport) Message() string {
	return strings.Join(r.Messages, "\n")
}

// Reporter builds and persists exactly one report per run.
type Reporter struct {
	store LogStore
}

// NewReporter creates a reporter over store.
func NewReporter(store LogStore) *Reporter {
	return &Reporter{store: store}
}

// Report builds the run's report and saves it. Save failures are returned.
func (r *Reporter) Report(ctx context.Context, run *runContext) (*RunReport, error) {
	status := StatusSuccess
	if run.hasError {
		status = StatusError
	}

	report := &RunReport{
		ID:         uuid.NewString(),
		RunID:      run.id,
		Status:     status,
		Messages:   append([]string(nil), run.messages...),
		EntityType: run.kind.Code,
		StartedAt:  run.started,
		FinishedAt: run.now(),
	}

	run.logger.Debug("import messages", "messages", report.Messages)

	if err := r.store.Save(ctx, report); err != nil {
		return report, fmt.Errorf("save run report: %w", err)
	}
	return report, nil
}
