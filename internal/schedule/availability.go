package schedule

import (
	"context"
	"fmt"
	"time"

	"garage-backend/internal/model"
)

// BusySet lists the work-order statuses that make an employee unavailable
// for a time window. A WAITING order is a queued request without a confirmed
// claim on the window, so it does not block; the same set is used on every
// conflict-checking path, walk-in creation included.
var BusySet = []model.WorkOrderStatus{model.OrderAssigned, model.OrderInProgress}

// ConflictStore is the slice of the store the availability checker needs.
type ConflictStore interface {
	FindConflictingWorkOrder(ctx context.Context, employeeID int64, start, end time.Time, excludeID int64, busy []model.WorkOrderStatus) (*model.WorkOrder, error)
}

// Checker answers "is this employee free for this window". It is the single
// source of truth for that question; assignment, reassignment, acceptance and
// walk-in creation all go through it.
type Checker struct {
	store ConflictStore
}

// NewChecker creates an availability Checker.
func NewChecker(store ConflictStore) *Checker {
	return &Checker{store: store}
}

// FindConflict returns a work order held by the employee whose booking window
// overlaps [start, end) half-open, or nil when the employee is free.
// excludeWorkOrderID lets a reassignment ignore the order being moved;
// pass 0 to exclude nothing.
func (c *Checker) FindConflict(ctx context.Context, employeeID int64, start, end time.Time, excludeWorkOrderID int64) (*model.WorkOrder, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid window: start %s is not before end %s", start, end)
	}
	return c.store.FindConflictingWorkOrder(ctx, employeeID, start, end, excludeWorkOrderID, BusySet)
}
