package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"
)

// UpdatePath tells which writer persisted a status change.
type UpdatePath string

const (
	PathPrimary  UpdatePath = "primary"
	PathFallback UpdatePath = "fallback"
)

// Transition is a status change to persist.
type Transition struct {
	OrderID string
	From    Status
	To      Status
	At      time.Time
}

// StatusWriter persists a status transition.
type StatusWriter interface {
	WriteStatus(ctx context.Context, t Transition) error
}

// StatusWriterFunc adapts a function to StatusWriter.
type StatusWriterFunc func(ctx context.Context, t Transition) error

// WriteStatus calls f(ctx, t).
func (f StatusWriterFunc) WriteStatus(ctx context.Context, t Transition) error {
	return f(ctx, t)
}

// UpdateStatusWithFallback writes t through primary and, only if that fails,
// makes a single attempt through secondary. A missing order or a concurrent
// status change is reported as is, since the secondary writer cannot do
// better. When both writers fail the two errors are combined with
// ErrStatusUpdateFailed.
func UpdateStatusWithFallback(ctx context.Context, primary, secondary StatusWriter, t Transition) (UpdatePath, error) {
	perr := primary.WriteStatus(ctx, t)
	if perr == nil {
		return PathPrimary, nil
	}
	if secondary == nil || errors.Is(perr, ErrNotFound) || errors.Is(perr, ErrStatusConflict) {
		return "", perr
	}

	serr := secondary.WriteStatus(ctx, t)
	if serr == nil {
		return PathFallback, nil
	}
	return "", multierr.Combine(
		ErrStatusUpdateFailed,
		errors.Wrap(perr, "primary status update"),
		errors.Wrap(serr, "fallback status update"),
	)
}
