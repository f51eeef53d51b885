// Package workorder owns the work-order status state machine and the
// assignment coordinator that drives it. Every write to a work order and its
// paired booking funnels through here, inside one transaction.
package workorder

import "garage-backend/internal/model"

// Actor is the already-authenticated caller identity, resolved by the auth
// layer. The coordinator enforces role guards against it defensively even
// though the HTTP edge checks roles as well.
type Actor struct {
	UserType   model.UserType `json:"userType"`
	UserID     int64          `json:"userId"`
	EmployeeID int64          `json:"employeeId,omitempty"`
	CustomerID int64          `json:"customerId,omitempty"`
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.UserType == model.UserAdmin }

// IsEmployee reports whether the actor is a staff employee.
func (a Actor) IsEmployee() bool { return a.UserType == model.UserEmployee }

// IsAssignedTo reports whether the actor is the employee the work order is
// currently assigned to.
func (a Actor) IsAssignedTo(wo *model.WorkOrder) bool {
	return a.IsEmployee() && wo.EmployeeID != nil && *wo.EmployeeID == a.EmployeeID
}
