package order

import "time"

var (
	deliveryFlow = []Status{
		StatusCreated, StatusUnpaid, StatusPaid, StatusPacked, StatusOutForDelivery, StatusDelivered,
	}
	collectionFlow = []Status{
		StatusCreated, StatusUnpaid, StatusPaid, StatusPacked, StatusCollected,
	}
)

// Flow returns the ordered workflow for a fulfillment type. Unknown types
// get the delivery flow.
func Flow(f FulfillmentType) []Status {
	if f == FulfillmentCollection {
		return collectionFlow
	}
	return deliveryFlow
}

// Step is the single forward transition offered for an order.
type Step struct {
	Label string
	Next  Status
}

type stepKey struct {
	fulfillment FulfillmentType
	status      Status
}

var steps = map[stepKey]Step{
	{FulfillmentDelivery, StatusPaid}:           {Label: "Mark as Packed", Next: StatusPacked},
	{FulfillmentDelivery, StatusPacked}:         {Label: "Mark Out for Delivery", Next: StatusOutForDelivery},
	{FulfillmentDelivery, StatusOutForDelivery}: {Label: "Mark Delivered", Next: StatusDelivered},
	{FulfillmentCollection, StatusPaid}:         {Label: "Mark as Packed", Next: StatusPacked},
	{FulfillmentCollection, StatusPacked}:       {Label: "Mark Collected", Next: StatusCollected},
}

// NextStep returns the forward transition available from status, or false
// when there is none. Payment moves orders out of created and unpaid, so
// those states offer nothing here.
func NextStep(f FulfillmentType, status Status) (Step, bool) {
	s, ok := steps[stepKey{f, status}]
	return s, ok
}

// StepState is the rendered state of one step in an order timeline.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepPending   StepState = "pending"
	StepCancelled StepState = "cancelled"
)

// StepStatus derives the state of step within flow given the order's
// current status. A cancelled order reports every step as cancelled.
func StepStatus(flow []Status, current, step Status) StepState {
	if current == StatusCancelled {
		return StepCancelled
	}
	ci, si := indexOf(flow, current), indexOf(flow, step)
	if si >= 0 && ci >= 0 && si <= ci {
		return StepCompleted
	}
	return StepPending
}

func indexOf(flow []Status, s Status) int {
	for i, v := range flow {
		if v == s {
			return i
		}
	}
	return -1
}

// TimelineEntry is one row of an order's fulfillment timeline.
type TimelineEntry struct {
	Status Status
	State  StepState
	At     *time.Time
}

// Timeline renders the workflow of o with the state and milestone time of
// each step.
func Timeline(o *Order) []TimelineEntry {
	flow := Flow(o.FulfillmentType)
	out := make([]TimelineEntry, len(flow))
	for i, s := range flow {
		at := o.Milestones.At(s)
		if s == StatusCreated {
			at = &o.CreatedAt
		}
		out[i] = TimelineEntry{
			Status: s,
			State:  StepStatus(flow, o.Status, s),
			At:     at,
		}
	}
	return out
}

// CanTransition reports whether moving an order from one status to another
// is allowed by an explicit status change. Only the offered forward step and
// cancellation of a non-terminal order are legal.
func CanTransition(f FulfillmentType, from, to Status) bool {
	if to == StatusCancelled {
		return !from.Terminal()
	}
	step, ok := NextStep(f, from)
	return ok && step.Next == to
}
