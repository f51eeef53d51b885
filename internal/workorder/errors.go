package workorder

import (
	"fmt"
	"time"

	"garage-backend/internal/model"
)

// InvalidTransitionError reports an illegal status jump, including re-entry
// into or out of a terminal state. It indicates a caller bug and is never
// retried.
type InvalidTransitionError struct {
	WorkOrderID int64
	From        model.WorkOrderStatus
	To          model.WorkOrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("work order %d: illegal transition %s -> %s", e.WorkOrderID, e.From, e.To)
}

// SchedulingConflictError reports that an employee already holds an active
// work order overlapping the requested window. It is an expected business
// condition; the caller can pick another employee or queue as WAITING.
type SchedulingConflictError struct {
	EmployeeID           int64
	ConflictingOrderID   int64
	ConflictingBookingID int64
	WindowStart          time.Time
	WindowEnd            time.Time
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("employee %d is busy: work order %d (booking %d) occupies %s - %s",
		e.EmployeeID, e.ConflictingOrderID, e.ConflictingBookingID,
		e.WindowStart.Format(time.RFC3339), e.WindowEnd.Format(time.RFC3339))
}

// AuthorizationError reports a role or ownership mismatch for an operation.
type AuthorizationError struct {
	Op       string
	UserType model.UserType
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: not permitted for %s", e.Op, e.UserType)
}
