package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultListLimit = 500

// Details is an order together with its rendered workflow.
type Details struct {
	Order    *Order
	Timeline []TimelineEntry
	Next     *Step
}

// StatusResult is the refetched order after a status change and the writer
// path that persisted it. Path is empty when nothing had to be written.
type StatusResult struct {
	Order *Order
	Path  UpdatePath
}

// Service implements order listing and fulfillment status changes.
type Service struct {
	repo      Repository
	primary   StatusWriter
	secondary StatusWriter
	now       func() time.Time

	tracer      trace.Tracer
	transitions metric.Int64Counter
	fallbacks   metric.Int64Counter
}

// NewService creates an order Service. The secondary writer may be nil to
// disable the fallback path.
func NewService(
	repo Repository,
	primary, secondary StatusWriter,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	meter := mp.Meter("github.com/xenking/beauty-admin/internal/domain/order")
	transitions, err := meter.Int64Counter("order.status.transitions",
		metric.WithDescription("Order status transitions persisted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create transitions counter")
	}
	fallbacks, err := meter.Int64Counter("order.status.fallbacks",
		metric.WithDescription("Order status writes served by the fallback writer"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create fallbacks counter")
	}
	return &Service{
		repo:        repo,
		primary:     primary,
		secondary:   secondary,
		now:         time.Now,
		tracer:      tp.Tracer("github.com/xenking/beauty-admin/internal/domain/order"),
		transitions: transitions,
		fallbacks:   fallbacks,
	}, nil
}

// List returns orders matching filter, newest first. The limit is clamped
// to 500.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, error) {
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns an order with its timeline and the next offered step.
func (s *Service) Get(ctx context.Context, id string) (*Details, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Describe(o), nil
}

// Describe renders the timeline and next step of o.
func Describe(o *Order) *Details {
	d := &Details{Order: o, Timeline: Timeline(o)}
	if step, ok := NextStep(o.FulfillmentType, o.Status); ok {
		d.Next = &step
	}
	return d
}

// Advance moves an order one step forward along its workflow and returns the
// order as stored afterwards.
func (s *Service) Advance(ctx context.Context, id string) (*StatusResult, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	step, ok := NextStep(o.FulfillmentType, o.Status)
	if !ok {
		return nil, errors.Wrapf(ErrIllegalTransition, "no step from %s", o.Status)
	}
	return s.transition(ctx, o, step.Next)
}

// SetStatus applies an explicit status change. Setting the current status
// again is a no-op. Otherwise only the offered forward step or cancellation
// of a non-terminal order is accepted.
func (s *Service) SetStatus(ctx context.Context, id string, to Status) (*StatusResult, error) {
	if !to.Valid() {
		return nil, errors.Wrapf(ErrIllegalTransition, "unknown status %q", to)
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == to {
		return &StatusResult{Order: o}, nil
	}
	if !CanTransition(o.FulfillmentType, o.Status, to) {
		return nil, errors.Wrapf(ErrIllegalTransition, "%s to %s", o.Status, to)
	}
	return s.transition(ctx, o, to)
}

func (s *Service) transition(ctx context.Context, o *Order, to Status) (*StatusResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.Transition",
		trace.WithAttributes(
			attribute.String("order.id", o.ID),
			attribute.String("order.status.from", string(o.Status)),
			attribute.String("order.status.to", string(to)),
		),
	)
	defer span.End()

	t := Transition{OrderID: o.ID, From: o.Status, To: to, At: s.now()}
	path, err := UpdateStatusWithFallback(ctx, s.primary, s.secondary, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		return nil, errors.Wrapf(err, "update order %s status", o.ID)
	}
	span.SetAttributes(attribute.String("order.status.path", string(path)))

	attrs := metric.WithAttributes(attribute.String("status", string(to)))
	s.transitions.Add(ctx, 1, attrs)
	if path == PathFallback {
		s.fallbacks.Add(ctx, 1, attrs)
		zctx.From(ctx).Warn("Order status written through fallback",
			zap.String("order_id", o.ID),
			zap.String("status", string(to)),
		)
	}

	fresh, err := s.repo.Get(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "refetch order")
	}
	return &StatusResult{Order: fresh, Path: path}, nil
}

// SetArchived sets the archive flag of an order and returns it refetched.
func (s *Service) SetArchived(ctx context.Context, id string, archived bool) (*Order, error) {
	if err := s.repo.SetArchived(ctx, id, archived); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
