package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evcraddock/dreamdoor/internal/house"
)

// Failure describes a failed fetch inside an enrichment loop.
type Failure struct {
	House   *house.House
	Message string
	// Remaining holds the failing house followed by every house after it.
	Remaining []*house.House
}

// Decision tells the loop how to account for a failure.
type Decision struct {
	Errors int
	Halt   bool
}

// FailurePolicy decides what an enrichment loop does after a failed fetch.
// A returned error is fatal to the job.
type FailurePolicy interface {
	OnFailure(ctx context.Context, f Failure) (Decision, error)
}

// ContinueOnError logs the failure, counts one error and moves on.
type ContinueOnError struct {
	Logger *slog.Logger
}

// OnFailure implements FailurePolicy.
func (p ContinueOnError) OnFailure(_ context.Context, f Failure) (Decision, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(f.Message, "house_id", f.House.ID, "external_id", f.House.ExternalID)
	return Decision{Errors: 1}, nil
}

// ImportErrorRecorder persists import errors.
type ImportErrorRecorder interface {
	AppendImportError(ctx context.Context, e house.ImportError) error
}

// AbortAndRecord writes one ImportError for the failing house and each
// house after it, then halts the loop.
type AbortAndRecord struct {
	Store      ImportErrorRecorder
	ImportType string
	RunID      string
	Logger     *slog.Logger
}

// OnFailure implements FailurePolicy.
func (p AbortAndRecord) OnFailure(ctx context.Context, f Failure) (Decision, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(f.Message, "house_id", f.House.ID, "external_id", f.House.ExternalID, "remaining", len(f.Remaining))

	// Record even when the job was cancelled mid-call.
	ctx = context.WithoutCancel(ctx)
	for _, h := range f.Remaining {
		id := h.ID
		err := p.Store.AppendImportError(ctx, house.ImportError{
			HouseID:    &id,
			ExternalID: h.ExternalID,
			ImportType: p.ImportType,
			Message:    f.Message,
			RunID:      p.RunID,
		})
		if err != nil {
			return Decision{}, fmt.Errorf("recording import error for house %d: %w", h.ID, err)
		}
	}

	return Decision{Errors: len(f.Remaining), Halt: true}, nil
}
