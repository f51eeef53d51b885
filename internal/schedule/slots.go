package schedule

import (
	"context"
	"fmt"
	"time"

	"garage-backend/internal/model"
)

// Slot is one bookable window of the business day, annotated with the
// employees who could still take a job in it.
type Slot struct {
	Start                time.Time `json:"start"`
	End                  time.Time `json:"end"`
	Capacity             int       `json:"capacity"`
	AvailableEmployeeIDs []int64   `json:"availableEmployeeIds"`
	OccupiedEmployeeIDs  []int64   `json:"occupiedEmployeeIds"`
}

// DaySchedule is the result of slot generation for one date.
type DaySchedule struct {
	Date    time.Time `json:"date"`
	OpenAt  time.Time `json:"openAt"`
	CloseAt time.Time `json:"closeAt"`
	Slots   []Slot    `json:"slots"`
	Reason  string    `json:"reason,omitempty"` // set when Slots is empty for a non-obvious cause
}

// SlotStore is the slice of the store the generator needs.
type SlotStore interface {
	ActiveEmployees(ctx context.Context) ([]model.EmployeeProfile, error)
	BookingsOverlapping(ctx context.Context, start, end time.Time, statuses []model.BookingStatus) ([]model.Booking, error)
}

// Generator produces the bookable slots of a service day by combining the
// business calendar with active-employee headcount and existing bookings.
type Generator struct {
	calendar *Calendar
	store    SlotStore
}

// NewGenerator creates a slot Generator.
func NewGenerator(calendar *Calendar, store SlotStore) *Generator {
	return &Generator{calendar: calendar, store: store}
}

// GenerateSlots computes the slot list for the given date.
//
// The day is partitioned into consecutive windows of SlotMinutes starting at
// opening time; a final window that would run past closing is dropped, not
// clipped. Bookings in PENDING or ACCEPTED remove their assigned employee
// from each slot they overlap; a booking without an assigned employee burns
// one unit of capacity per overlapped slot without naming anyone. Capacity is
// the number of employees who could still be booked in the slot, never below
// zero.
func (g *Generator) GenerateSlots(ctx context.Context, date time.Time) (*DaySchedule, error) {
	openAt, closeAt, settings, err := g.calendar.OperatingWindow(ctx, date)
	if err != nil {
		return nil, err
	}

	day := &DaySchedule{Date: date, OpenAt: openAt, CloseAt: closeAt, Slots: []Slot{}}

	employees, err := g.store.ActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate slots: %w", err)
	}
	if len(employees) == 0 {
		day.Reason = "no active employees"
		return day, nil
	}

	slotDur := time.Duration(settings.SlotMinutes) * time.Minute
	if slotDur <= 0 {
		return nil, fmt.Errorf("%w: invalid slot minutes %d", ErrNoSettings, settings.SlotMinutes)
	}

	employeeIDs := make([]int64, len(employees))
	for i, e := range employees {
		employeeIDs[i] = e.ID
	}

	for cur := openAt; !cur.Add(slotDur).After(closeAt); cur = cur.Add(slotDur) {
		day.Slots = append(day.Slots, Slot{
			Start:                cur,
			End:                  cur.Add(slotDur),
			AvailableEmployeeIDs: append([]int64(nil), employeeIDs...),
			OccupiedEmployeeIDs:  []int64{},
		})
	}

	bookings, err := g.store.BookingsOverlapping(ctx, openAt, closeAt,
		[]model.BookingStatus{model.BookingPending, model.BookingAccepted})
	if err != nil {
		return nil, fmt.Errorf("generate slots: %w", err)
	}

	// unassigned[i] counts bookings without an assigned employee that overlap
	// slot i; they consume capacity without blocking a specific employee.
	unassigned := make([]int, len(day.Slots))
	for _, b := range bookings {
		for i := range day.Slots {
			slot := &day.Slots[i]
			if !Overlaps(b.StartAt, b.EndAt, slot.Start, slot.End) {
				continue
			}
			if b.WorkOrder != nil && b.WorkOrder.EmployeeID != nil {
				slot.AvailableEmployeeIDs = removeID(slot.AvailableEmployeeIDs, *b.WorkOrder.EmployeeID)
				slot.OccupiedEmployeeIDs = addID(slot.OccupiedEmployeeIDs, *b.WorkOrder.EmployeeID)
			} else {
				unassigned[i]++
			}
		}
	}

	for i := range day.Slots {
		capacity := len(day.Slots[i].AvailableEmployeeIDs) - unassigned[i]
		if capacity < 0 {
			capacity = 0
		}
		day.Slots[i].Capacity = capacity
	}

	return day, nil
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func addID(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
