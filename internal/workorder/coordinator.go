package workorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"garage-backend/internal/model"
	"garage-backend/internal/schedule"
	"garage-backend/internal/store"
)

// StatusHook is called after every successfully committed transition. Its
// result is ignored; the notification subsystem subscribes through it.
type StatusHook func(wo *model.WorkOrder, b *model.Booking)

// Coordinator orchestrates work-order transitions: employee assignment,
// acceptance, progress, cancellation and completion. Each transition runs the
// conflict check and both entity updates inside one store transaction, plus a
// conditional status update so two racing transitions cannot both commit.
type Coordinator struct {
	store store.Store
	hook  StatusHook
	now   func() time.Time
}

// NewCoordinator creates a Coordinator. hook may be nil.
func NewCoordinator(s store.Store, hook StatusHook) *Coordinator {
	return &Coordinator{store: s, hook: hook, now: time.Now}
}

func (c *Coordinator) emit(wo *model.WorkOrder, b *model.Booking) {
	if c.hook != nil && wo != nil && b != nil {
		c.hook(wo, b)
	}
}

// Result pairs the two entities every transition returns.
type Result struct {
	WorkOrder *model.WorkOrder `json:"workOrder"`
	Booking   *model.Booking   `json:"booking"`
}

// CreateInput describes a new appointment plus its work order.
type CreateInput struct {
	CustomerID int64
	ServiceIDs []int64
	EmployeeID *int64 // requested employee; nil leaves the order OPEN
	Type       model.BookingType
	StartAt    time.Time
	EndAt      time.Time
	Notes      string
}

// CreateWorkOrderWithBooking creates the booking and its work order together
// in one transaction. A requested employee who is free yields ASSIGNED and an
// ACCEPTED booking; a busy one queues the order as WAITING; no employee
// leaves it OPEN.
func (c *Coordinator) CreateWorkOrderWithBooking(ctx context.Context, in CreateInput, actor Actor) (*Result, error) {
	const op = "workorder.Create"

	switch actor.UserType {
	case model.UserAdmin, model.UserEmployee:
		// staff may create walk-ins and online bookings alike
	case model.UserCustomer:
		if in.Type != model.BookingOnline || in.CustomerID != actor.CustomerID {
			return nil, &AuthorizationError{Op: op, UserType: actor.UserType}
		}
	default:
		return nil, &AuthorizationError{Op: op, UserType: actor.UserType}
	}

	in.StartAt = in.StartAt.UTC()
	in.EndAt = in.EndAt.UTC()
	if !in.StartAt.Before(in.EndAt) {
		return nil, fmt.Errorf("%s: start %s is not before end %s", op, in.StartAt, in.EndAt)
	}

	now := c.now().UTC()
	res := &Result{}

	err := c.store.Transaction(ctx, func(tx store.Store) error {
		status := model.OrderOpen
		bookingStatus := model.BookingPending
		var acceptedAt *time.Time

		if in.EmployeeID != nil {
			if _, err := tx.GetEmployee(ctx, *in.EmployeeID); err != nil {
				return err
			}
			conflict, err := schedule.NewChecker(tx).FindConflict(ctx, *in.EmployeeID, in.StartAt, in.EndAt, 0)
			if err != nil {
				return err
			}
			if conflict != nil {
				status = model.OrderWaiting
			} else {
				status = model.OrderAssigned
				bookingStatus = model.BookingAccepted
				acceptedAt = &now
			}
		}

		y, m, d := in.StartAt.Date()
		booking := &model.Booking{
			CustomerID:      in.CustomerID,
			CreatedByUserID: actor.UserID,
			Date:            time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			StartAt:         in.StartAt,
			EndAt:           in.EndAt,
			SlotMinutes:     int(in.EndAt.Sub(in.StartAt) / time.Minute),
			Type:            in.Type,
			Status:          bookingStatus,
			Notes:           in.Notes,
			AcceptedAt:      acceptedAt,
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}
		if err := tx.AttachBookingServices(ctx, booking, in.ServiceIDs); err != nil {
			return err
		}

		wo := &model.WorkOrder{
			BookingID:  booking.ID,
			CustomerID: in.CustomerID,
			EmployeeID: in.EmployeeID,
			Status:     status,
			OpenedAt:   now,
			Notes:      in.Notes,
		}
		if err := tx.CreateWorkOrder(ctx, wo); err != nil {
			return err
		}
		if err := tx.AttachWorkOrderServices(ctx, wo, in.ServiceIDs); err != nil {
			return err
		}

		res.WorkOrder = wo
		res.Booking = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.emit(res.WorkOrder, res.Booking)
	return res, nil
}

// Assign puts the work order into the target employee's hands. Admin only;
// legal from DRAFT, OPEN or WAITING. A conflicting active order for the
// employee fails with SchedulingConflictError, never a silent overwrite.
func (c *Coordinator) Assign(ctx context.Context, workOrderID, employeeID int64, actor Actor) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, &AuthorizationError{Op: "workorder.Assign", UserType: actor.UserType}
	}
	return c.assignTo(ctx, workOrderID, employeeID,
		[]model.WorkOrderStatus{model.OrderDraft, model.OrderOpen, model.OrderWaiting})
}

// Reassign moves an order to a different employee. Admin only; unlike Assign
// it also accepts an already-ASSIGNED order as its source.
func (c *Coordinator) Reassign(ctx context.Context, workOrderID, employeeID int64, actor Actor) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, &AuthorizationError{Op: "workorder.Reassign", UserType: actor.UserType}
	}
	return c.assignTo(ctx, workOrderID, employeeID,
		[]model.WorkOrderStatus{model.OrderDraft, model.OrderOpen, model.OrderAssigned, model.OrderWaiting})
}

// AcceptByEmployee lets an employee claim an OPEN work order for themselves.
func (c *Coordinator) AcceptByEmployee(ctx context.Context, workOrderID, employeeID int64, actor Actor) (*Result, error) {
	if !actor.IsEmployee() || actor.EmployeeID != employeeID {
		return nil, &AuthorizationError{Op: "workorder.Accept", UserType: actor.UserType}
	}
	return c.assignTo(ctx, workOrderID, employeeID,
		[]model.WorkOrderStatus{model.OrderOpen})
}

// assignTo runs the shared conflict-check-then-assign sequence inside one
// transaction. The booking flips to ACCEPTED on a first assignment and stays
// untouched on a pure reassign (it is already ACCEPTED then).
func (c *Coordinator) assignTo(ctx context.Context, workOrderID, employeeID int64, sources []model.WorkOrderStatus) (*Result, error) {
	now := c.now().UTC()
	res := &Result{}

	err := c.store.Transaction(ctx, func(tx store.Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return err
		}
		if !statusIn(wo.Status, sources) {
			return &InvalidTransitionError{WorkOrderID: wo.ID, From: wo.Status, To: model.OrderAssigned}
		}
		if _, err := tx.GetEmployee(ctx, employeeID); err != nil {
			return err
		}

		booking := wo.Booking
		conflict, err := schedule.NewChecker(tx).FindConflict(ctx, employeeID, booking.StartAt, booking.EndAt, wo.ID)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &SchedulingConflictError{
				EmployeeID:           employeeID,
				ConflictingOrderID:   conflict.ID,
				ConflictingBookingID: conflict.BookingID,
				WindowStart:          conflict.Booking.StartAt,
				WindowEnd:            conflict.Booking.EndAt,
			}
		}

		if err := tx.UpdateWorkOrderStatusGuarded(ctx, wo.ID, wo.Status, model.OrderAssigned); err != nil {
			return err
		}
		wo.Status = model.OrderAssigned
		wo.EmployeeID = &employeeID
		if err := tx.UpdateWorkOrder(ctx, wo); err != nil {
			return err
		}

		if booking.Status == model.BookingPending {
			booking.Status = model.BookingAccepted
			booking.AcceptedAt = &now
			if err := tx.UpdateBooking(ctx, &booking); err != nil {
				return err
			}
		}

		wo.Booking = booking
		res.WorkOrder = wo
		res.Booking = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.emit(res.WorkOrder, res.Booking)
	return res, nil
}

// StartWork moves an ASSIGNED order to IN_PROGRESS. Only the assigned
// employee may start their own job; the booking records startedAt.
func (c *Coordinator) StartWork(ctx context.Context, workOrderID int64, actor Actor) (*Result, error) {
	now := c.now().UTC()
	res := &Result{}

	err := c.store.Transaction(ctx, func(tx store.Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return err
		}
		if wo.Status != model.OrderAssigned {
			return &InvalidTransitionError{WorkOrderID: wo.ID, From: wo.Status, To: model.OrderInProgress}
		}
		if !actor.IsAssignedTo(wo) {
			return &AuthorizationError{Op: "workorder.Start", UserType: actor.UserType}
		}

		if err := tx.UpdateWorkOrderStatusGuarded(ctx, wo.ID, wo.Status, model.OrderInProgress); err != nil {
			return err
		}
		wo.Status = model.OrderInProgress
		if err := tx.UpdateWorkOrder(ctx, wo); err != nil {
			return err
		}

		booking := wo.Booking
		booking.StartedAt = &now
		if err := tx.UpdateBooking(ctx, &booking); err != nil {
			return err
		}

		wo.Booking = booking
		res.WorkOrder = wo
		res.Booking = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.emit(res.WorkOrder, res.Booking)
	return res, nil
}

// Cancel aborts a non-terminal work order and its booking together. Admin
// only. The reason is appended to both notes fields.
func (c *Coordinator) Cancel(ctx context.Context, workOrderID int64, reason string, actor Actor) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, &AuthorizationError{Op: "workorder.Cancel", UserType: actor.UserType}
	}

	now := c.now().UTC()
	res := &Result{}

	err := c.store.Transaction(ctx, func(tx store.Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return err
		}
		if err := guardTransition(wo, model.OrderCancelled); err != nil {
			return err
		}

		if err := tx.UpdateWorkOrderStatusGuarded(ctx, wo.ID, wo.Status, model.OrderCancelled); err != nil {
			return err
		}
		wo.Status = model.OrderCancelled
		wo.ClosedAt = &now
		wo.Notes = appendNote(wo.Notes, "cancelled: "+reason)
		if err := tx.UpdateWorkOrder(ctx, wo); err != nil {
			return err
		}

		booking := wo.Booking
		booking.Status = model.BookingCancelled
		booking.Notes = appendNote(booking.Notes, "cancelled: "+reason)
		if err := tx.UpdateBooking(ctx, &booking); err != nil {
			return err
		}

		wo.Booking = booking
		res.WorkOrder = wo
		res.Booking = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.emit(res.WorkOrder, res.Booking)
	return res, nil
}

// CancelBooking cancels by booking id. With a paired work order it delegates
// to Cancel so both entities move together; a booking that never got a work
// order is cancelled alone.
func (c *Coordinator) CancelBooking(ctx context.Context, bookingID int64, reason string, actor Actor) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, &AuthorizationError{Op: "workorder.CancelBooking", UserType: actor.UserType}
	}

	booking, err := c.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.WorkOrder != nil {
		return c.Cancel(ctx, booking.WorkOrder.ID, reason, actor)
	}

	if booking.Status.Terminal() {
		return nil, fmt.Errorf("booking %d already %s", booking.ID, booking.Status)
	}
	booking.Status = model.BookingCancelled
	booking.Notes = appendNote(booking.Notes, "cancelled: "+reason)
	if err := c.store.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}
	return &Result{Booking: booking}, nil
}

// MarkDone closes the order as DONE without financial closeout. Allowed for
// an admin or the assigned employee, from any non-terminal state.
func (c *Coordinator) MarkDone(ctx context.Context, workOrderID int64, note string, actor Actor) (*Result, error) {
	now := c.now().UTC()
	res := &Result{}

	err := c.store.Transaction(ctx, func(tx store.Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return err
		}
		if err := guardTransition(wo, model.OrderDone); err != nil {
			return err
		}
		if !actor.IsAdmin() && !actor.IsAssignedTo(wo) {
			return &AuthorizationError{Op: "workorder.Done", UserType: actor.UserType}
		}

		if err := tx.UpdateWorkOrderStatusGuarded(ctx, wo.ID, wo.Status, model.OrderDone); err != nil {
			return err
		}
		wo.Status = model.OrderDone
		wo.ClosedAt = &now
		wo.Notes = appendNote(wo.Notes, note)
		if err := tx.UpdateWorkOrder(ctx, wo); err != nil {
			return err
		}

		booking := wo.Booking
		booking.Status = model.BookingDone
		booking.CompletedAt = &now
		if err := tx.UpdateBooking(ctx, &booking); err != nil {
			return err
		}

		wo.Booking = booking
		res.WorkOrder = wo
		res.Booking = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.emit(res.WorkOrder, res.Booking)
	return res, nil
}

// BillingInput carries the closeout figures for CompleteWithBilling.
type BillingInput struct {
	PartsUsed    []model.PartUsed
	LaborEntries []model.LaborEntry
	TaxRate      float64
	TaxAmount    *float64 // explicit override; nil computes from TaxRate
	Note         string
}

// CompleteWithBilling closes the order as COMPLETED, computing total revenue
// from parts, labor and tax. Admin only, from any non-terminal state. The
// booking closes to DONE like MarkDone does.
func (c *Coordinator) CompleteWithBilling(ctx context.Context, workOrderID int64, in BillingInput, actor Actor) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, &AuthorizationError{Op: "workorder.Complete", UserType: actor.UserType}
	}

	now := c.now().UTC()
	res := &Result{}

	err := c.store.Transaction(ctx, func(tx store.Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return err
		}
		if err := guardTransition(wo, model.OrderCompleted); err != nil {
			return err
		}

		if err := tx.UpdateWorkOrderStatusGuarded(ctx, wo.ID, wo.Status, model.OrderCompleted); err != nil {
			return err
		}

		_, tax, total := ComputeRevenue(in.PartsUsed, in.LaborEntries, in.TaxRate, in.TaxAmount)
		wo.Status = model.OrderCompleted
		wo.ClosedAt = &now
		wo.PartsUsed = in.PartsUsed
		wo.LaborEntries = in.LaborEntries
		wo.TaxRate = in.TaxRate
		wo.TaxAmount = &tax
		wo.TotalRevenue = total
		wo.Notes = appendNote(wo.Notes, in.Note)
		if err := tx.UpdateWorkOrder(ctx, wo); err != nil {
			return err
		}

		booking := wo.Booking
		booking.Status = model.BookingDone
		booking.CompletedAt = &now
		if err := tx.UpdateBooking(ctx, &booking); err != nil {
			return err
		}

		wo.Booking = booking
		res.WorkOrder = wo
		res.Booking = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.emit(res.WorkOrder, res.Booking)
	return res, nil
}

func statusIn(s model.WorkOrderStatus, set []model.WorkOrderStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func appendNote(notes, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return notes
	}
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
