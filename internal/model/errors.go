// Package model defines the domain entities of the reservation core along
// with the typed errors its state machines surface. Capacity and transition
// failures carry enough context for handlers to build user-facing messages;
// they are never retried inside the core.
package model

import "fmt"

// CapacityExceededError signals that an admission requested more seats than
// the schedule/date had available at check time. Callers decide whether to
// retry with another date; the core never does.
type CapacityExceededError struct {
	ScheduleID uint64
	Requested  int
	Available  int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("schedule %d: requested %d seats, %d available",
		e.ScheduleID, e.Requested, e.Available)
}

// SeatLimitError signals an admission requesting more seats than the
// company-wide per-booking ceiling allows. A business rule, not a capacity
// shortage.
type SeatLimitError struct {
	Requested int
	Max       int
}

func (e *SeatLimitError) Error() string {
	return fmt.Sprintf("requested %d seats, maximum per booking is %d", e.Requested, e.Max)
}

// InvalidTransitionError signals an operation attempted on an entity whose
// current state does not admit it, e.g. confirming a cancelled reservation.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: invalid transition %s -> %s", e.Entity, e.From, e.To)
}
