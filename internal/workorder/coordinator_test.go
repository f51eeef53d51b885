package workorder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"garage-backend/internal/model"
	"garage-backend/internal/store"
)

var (
	adminActor    = Actor{UserType: model.UserAdmin, UserID: 1}
	customerActor = Actor{UserType: model.UserCustomer, UserID: 4, CustomerID: 1}
)

func employeeActor(employeeID int64) Actor {
	return Actor{UserType: model.UserEmployee, UserID: employeeID + 1, EmployeeID: employeeID}
}

func newTestStore(t *testing.T, name string) store.Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.EmployeeProfile{},
		&model.Customer{},
		&model.Service{},
		&model.BusinessSettings{},
		&model.Booking{},
		&model.WorkOrder{},
	))

	seed := []any{
		&model.User{ID: 1, Email: "admin@shop.test", Type: model.UserAdmin, Active: true},
		&model.User{ID: 2, Email: "mech1@shop.test", Type: model.UserEmployee, Active: true},
		&model.User{ID: 3, Email: "mech2@shop.test", Type: model.UserEmployee, Active: true},
		&model.User{ID: 4, Email: "cust@shop.test", Type: model.UserCustomer, Active: true},
		&model.EmployeeProfile{ID: 1, UserID: 2, FullName: "First Mechanic"},
		&model.EmployeeProfile{ID: 2, UserID: 3, FullName: "Second Mechanic"},
		&model.Customer{ID: 1, FullName: "Jo Driver"},
		&model.Service{ID: 1, Name: "oil change", BasePrice: 40},
		&model.BusinessSettings{ID: 1, Timezone: "UTC", OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 60, AllowCustomerBooking: true},
	}
	for _, row := range seed {
		require.NoError(t, db.Create(row).Error)
	}
	return store.NewGormStore(db)
}

func window(h, m, durMinutes int) (time.Time, time.Time) {
	start := time.Date(2026, 6, 1, h, m, 0, 0, time.UTC)
	return start, start.Add(time.Duration(durMinutes) * time.Minute)
}

func createInput(employeeID *int64, start, end time.Time) CreateInput {
	return CreateInput{
		CustomerID: 1,
		ServiceIDs: []int64{1},
		EmployeeID: employeeID,
		Type:       model.BookingWalkIn,
		StartAt:    start,
		EndAt:      end,
	}
}

func int64p(v int64) *int64 { return &v }

func TestCreateWorkOrderWithBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("free employee yields ASSIGNED and an accepted booking", func(t *testing.T) {
		s := newTestStore(t, "create_assigned")
		c := NewCoordinator(s, nil)

		start, end := window(10, 0, 60)
		res, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		assert.Equal(t, model.OrderAssigned, res.WorkOrder.Status)
		require.NotNil(t, res.WorkOrder.EmployeeID)
		assert.Equal(t, int64(1), *res.WorkOrder.EmployeeID)
		assert.Equal(t, model.BookingAccepted, res.Booking.Status)
		assert.NotNil(t, res.Booking.AcceptedAt)
		assert.Equal(t, res.Booking.ID, res.WorkOrder.BookingID)
		assert.Equal(t, 60, res.Booking.SlotMinutes)
	})

	t.Run("busy employee queues the order as WAITING", func(t *testing.T) {
		s := newTestStore(t, "create_waiting")
		c := NewCoordinator(s, nil)

		start, end := window(10, 0, 60)
		_, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		overlapStart, overlapEnd := window(10, 30, 60)
		res, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), overlapStart, overlapEnd), adminActor)
		require.NoError(t, err)

		assert.Equal(t, model.OrderWaiting, res.WorkOrder.Status)
		assert.Equal(t, model.BookingPending, res.Booking.Status)
		assert.Nil(t, res.Booking.AcceptedAt)
	})

	t.Run("adjacent window does not conflict", func(t *testing.T) {
		s := newTestStore(t, "create_adjacent")
		c := NewCoordinator(s, nil)

		start, end := window(10, 0, 60)
		_, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		nextStart, nextEnd := window(11, 0, 60)
		res, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), nextStart, nextEnd), adminActor)
		require.NoError(t, err)
		assert.Equal(t, model.OrderAssigned, res.WorkOrder.Status)
	})

	t.Run("no employee leaves the order OPEN", func(t *testing.T) {
		s := newTestStore(t, "create_open")
		c := NewCoordinator(s, nil)

		start, end := window(10, 0, 60)
		res, err := c.CreateWorkOrderWithBooking(ctx, createInput(nil, start, end), adminActor)
		require.NoError(t, err)

		assert.Equal(t, model.OrderOpen, res.WorkOrder.Status)
		assert.Nil(t, res.WorkOrder.EmployeeID)
		assert.Equal(t, model.BookingPending, res.Booking.Status)
	})

	t.Run("customer may only book online for themselves", func(t *testing.T) {
		s := newTestStore(t, "create_customer")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)

		in := createInput(nil, start, end)
		in.Type = model.BookingWalkIn
		_, err := c.CreateWorkOrderWithBooking(ctx, in, customerActor)
		var authz *AuthorizationError
		assert.ErrorAs(t, err, &authz)

		in.Type = model.BookingOnline
		in.CustomerID = 99
		_, err = c.CreateWorkOrderWithBooking(ctx, in, customerActor)
		assert.ErrorAs(t, err, &authz)

		in.CustomerID = customerActor.CustomerID
		res, err := c.CreateWorkOrderWithBooking(ctx, in, customerActor)
		require.NoError(t, err)
		assert.Equal(t, model.BookingOnline, res.Booking.Type)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		s := newTestStore(t, "create_inverted")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		_, err := c.CreateWorkOrderWithBooking(ctx, createInput(nil, end, start), adminActor)
		assert.Error(t, err)
	})

	t.Run("unknown service rolls the whole creation back", func(t *testing.T) {
		s := newTestStore(t, "create_badservice")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)

		in := createInput(nil, start, end)
		in.ServiceIDs = []int64{777}
		_, err := c.CreateWorkOrderWithBooking(ctx, in, adminActor)
		require.ErrorIs(t, err, store.ErrNotFound)

		var count int64
		s.DB().Model(&model.Booking{}).Count(&count)
		assert.Zero(t, count, "booking must not survive a failed creation")
	})
}

func TestAssignAndReassign(t *testing.T) {
	ctx := context.Background()

	t.Run("assign an open order", func(t *testing.T) {
		s := newTestStore(t, "assign_open")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(nil, start, end), adminActor)
		require.NoError(t, err)

		res, err := c.Assign(ctx, created.WorkOrder.ID, 1, adminActor)
		require.NoError(t, err)
		assert.Equal(t, model.OrderAssigned, res.WorkOrder.Status)
		assert.Equal(t, int64(1), *res.WorkOrder.EmployeeID)
		assert.Equal(t, model.BookingAccepted, res.Booking.Status)
		assert.NotNil(t, res.Booking.AcceptedAt)
	})

	t.Run("assign to a busy employee reports the conflicting window", func(t *testing.T) {
		s := newTestStore(t, "assign_conflict")
		c := NewCoordinator(s, nil)

		busyStart, busyEnd := window(10, 30, 60)
		busy, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), busyStart, busyEnd), adminActor)
		require.NoError(t, err)

		start, end := window(10, 0, 60)
		open, err := c.CreateWorkOrderWithBooking(ctx, createInput(nil, start, end), adminActor)
		require.NoError(t, err)

		_, err = c.Assign(ctx, open.WorkOrder.ID, 1, adminActor)
		var conflict *SchedulingConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, int64(1), conflict.EmployeeID)
		assert.Equal(t, busy.WorkOrder.ID, conflict.ConflictingOrderID)
		assert.Equal(t, busy.Booking.ID, conflict.ConflictingBookingID)
		assert.Equal(t, busyStart, conflict.WindowStart.UTC())
		assert.Equal(t, busyEnd, conflict.WindowEnd.UTC())

		// The failed assignment must leave the order untouched.
		wo, err := s.GetWorkOrder(ctx, open.WorkOrder.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderOpen, wo.Status)
		assert.Nil(t, wo.EmployeeID)
	})

	t.Run("assign requires admin", func(t *testing.T) {
		s := newTestStore(t, "assign_role")
		c := NewCoordinator(s, nil)
		var authz *AuthorizationError
		_, err := c.Assign(ctx, 1, 1, employeeActor(1))
		assert.ErrorAs(t, err, &authz)
		_, err = c.Assign(ctx, 1, 1, customerActor)
		assert.ErrorAs(t, err, &authz)
	})

	t.Run("reassign moves an assigned order and ignores its own window", func(t *testing.T) {
		s := newTestStore(t, "reassign")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		res, err := c.Reassign(ctx, created.WorkOrder.ID, 2, adminActor)
		require.NoError(t, err)
		assert.Equal(t, model.OrderAssigned, res.WorkOrder.Status)
		assert.Equal(t, int64(2), *res.WorkOrder.EmployeeID)
		// Already accepted at creation; reassignment leaves the booking alone.
		assert.Equal(t, model.BookingAccepted, res.Booking.Status)
	})

	t.Run("plain assign rejects an already assigned order", func(t *testing.T) {
		s := newTestStore(t, "assign_sources")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		_, err = c.Assign(ctx, created.WorkOrder.ID, 2, adminActor)
		var invalid *InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("assign a waiting order once the employee frees up", func(t *testing.T) {
		s := newTestStore(t, "assign_waiting")
		c := NewCoordinator(s, nil)

		busyStart, busyEnd := window(10, 0, 60)
		busy, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), busyStart, busyEnd), adminActor)
		require.NoError(t, err)

		overlapStart, overlapEnd := window(10, 30, 60)
		waiting, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), overlapStart, overlapEnd), adminActor)
		require.NoError(t, err)
		require.Equal(t, model.OrderWaiting, waiting.WorkOrder.Status)

		_, err = c.Cancel(ctx, busy.WorkOrder.ID, "customer no-show", adminActor)
		require.NoError(t, err)

		res, err := c.Assign(ctx, waiting.WorkOrder.ID, 1, adminActor)
		require.NoError(t, err)
		assert.Equal(t, model.OrderAssigned, res.WorkOrder.Status)
	})
}

func TestAcceptByEmployee(t *testing.T) {
	ctx := context.Background()

	t.Run("employee claims an open order", func(t *testing.T) {
		s := newTestStore(t, "accept")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(nil, start, end), adminActor)
		require.NoError(t, err)

		res, err := c.AcceptByEmployee(ctx, created.WorkOrder.ID, 1, employeeActor(1))
		require.NoError(t, err)
		assert.Equal(t, model.OrderAssigned, res.WorkOrder.Status)
		assert.Equal(t, int64(1), *res.WorkOrder.EmployeeID)
		assert.Equal(t, model.BookingAccepted, res.Booking.Status)
	})

	t.Run("only for oneself", func(t *testing.T) {
		s := newTestStore(t, "accept_other")
		c := NewCoordinator(s, nil)
		var authz *AuthorizationError
		_, err := c.AcceptByEmployee(ctx, 1, 2, employeeActor(1))
		assert.ErrorAs(t, err, &authz)
		_, err = c.AcceptByEmployee(ctx, 1, 1, adminActor)
		assert.ErrorAs(t, err, &authz)
	})

	t.Run("only from OPEN", func(t *testing.T) {
		s := newTestStore(t, "accept_assigned")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		_, err = c.AcceptByEmployee(ctx, created.WorkOrder.ID, 2, employeeActor(2))
		var invalid *InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestStartWork(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "start")
	c := NewCoordinator(s, nil)

	start, end := window(10, 0, 60)
	created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
	require.NoError(t, err)

	t.Run("only the assigned employee may start", func(t *testing.T) {
		var authz *AuthorizationError
		_, err := c.StartWork(ctx, created.WorkOrder.ID, employeeActor(2))
		assert.ErrorAs(t, err, &authz)
		_, err = c.StartWork(ctx, created.WorkOrder.ID, adminActor)
		assert.ErrorAs(t, err, &authz)
	})

	t.Run("assigned employee starts the job", func(t *testing.T) {
		res, err := c.StartWork(ctx, created.WorkOrder.ID, employeeActor(1))
		require.NoError(t, err)
		assert.Equal(t, model.OrderInProgress, res.WorkOrder.Status)
		assert.NotNil(t, res.Booking.StartedAt)
	})

	t.Run("starting twice is illegal", func(t *testing.T) {
		var invalid *InvalidTransitionError
		_, err := c.StartWork(ctx, created.WorkOrder.ID, employeeActor(1))
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels both entities with the reason", func(t *testing.T) {
		s := newTestStore(t, "cancel")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		res, err := c.Cancel(ctx, created.WorkOrder.ID, "customer no-show", adminActor)
		require.NoError(t, err)
		assert.Equal(t, model.OrderCancelled, res.WorkOrder.Status)
		assert.NotNil(t, res.WorkOrder.ClosedAt)
		assert.Contains(t, res.WorkOrder.Notes, "cancelled: customer no-show")
		assert.Equal(t, model.BookingCancelled, res.Booking.Status)
		assert.Contains(t, res.Booking.Notes, "cancelled: customer no-show")
	})

	t.Run("terminal orders cannot be cancelled again", func(t *testing.T) {
		s := newTestStore(t, "cancel_terminal")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)
		_, err = c.Cancel(ctx, created.WorkOrder.ID, "first", adminActor)
		require.NoError(t, err)

		_, err = c.Cancel(ctx, created.WorkOrder.ID, "second", adminActor)
		var invalid *InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("admin only", func(t *testing.T) {
		s := newTestStore(t, "cancel_role")
		c := NewCoordinator(s, nil)
		var authz *AuthorizationError
		_, err := c.Cancel(ctx, 1, "nope", employeeActor(1))
		assert.ErrorAs(t, err, &authz)
	})
}

// failingStore wraps a real store and fails booking updates, to prove that a
// partial transition never commits.
type failingStore struct {
	store.Store
}

func (f *failingStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(&failingStore{Store: tx})
	})
}

func (f *failingStore) UpdateBooking(ctx context.Context, b *model.Booking) error {
	return errors.New("injected booking failure")
}

func TestCancelAtomicity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "cancel_atomic")
	c := NewCoordinator(s, nil)

	start, end := window(10, 0, 60)
	created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
	require.NoError(t, err)

	failing := NewCoordinator(&failingStore{Store: s}, nil)
	_, err = failing.Cancel(ctx, created.WorkOrder.ID, "doomed", adminActor)
	require.Error(t, err)

	// The work-order status update ran before the injected failure; the
	// rollback must have undone it.
	wo, err := s.GetWorkOrder(ctx, created.WorkOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderAssigned, wo.Status)
	assert.Equal(t, model.BookingAccepted, wo.Booking.Status)
}

func TestMarkDone(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned employee closes the job", func(t *testing.T) {
		s := newTestStore(t, "done")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)
		_, err = c.StartWork(ctx, created.WorkOrder.ID, employeeActor(1))
		require.NoError(t, err)

		res, err := c.MarkDone(ctx, created.WorkOrder.ID, "replaced pads", employeeActor(1))
		require.NoError(t, err)
		assert.Equal(t, model.OrderDone, res.WorkOrder.Status)
		assert.NotNil(t, res.WorkOrder.ClosedAt)
		assert.Contains(t, res.WorkOrder.Notes, "replaced pads")
		assert.Equal(t, model.BookingDone, res.Booking.Status)
		assert.NotNil(t, res.Booking.CompletedAt)
	})

	t.Run("unrelated employee may not close", func(t *testing.T) {
		s := newTestStore(t, "done_role")
		c := NewCoordinator(s, nil)
		start, end := window(10, 0, 60)
		created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
		require.NoError(t, err)

		var authz *AuthorizationError
		_, err = c.MarkDone(ctx, created.WorkOrder.ID, "", employeeActor(2))
		assert.ErrorAs(t, err, &authz)
	})
}

func TestCompleteWithBilling(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "complete")
	c := NewCoordinator(s, nil)

	start, end := window(10, 0, 60)
	created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
	require.NoError(t, err)

	t.Run("admin only", func(t *testing.T) {
		var authz *AuthorizationError
		_, err := c.CompleteWithBilling(ctx, created.WorkOrder.ID, BillingInput{}, employeeActor(1))
		assert.ErrorAs(t, err, &authz)
	})

	t.Run("computes and persists the closeout", func(t *testing.T) {
		res, err := c.CompleteWithBilling(ctx, created.WorkOrder.ID, BillingInput{
			PartsUsed:    []model.PartUsed{{Name: "brake pads", Price: 50, Qty: 2}},
			LaborEntries: []model.LaborEntry{{Hours: 2, Rate: 30}},
			TaxRate:      10,
			Note:         "closed out",
		}, adminActor)
		require.NoError(t, err)

		assert.Equal(t, model.OrderCompleted, res.WorkOrder.Status)
		assert.Equal(t, 176.0, res.WorkOrder.TotalRevenue)
		require.NotNil(t, res.WorkOrder.TaxAmount)
		assert.Equal(t, 16.0, *res.WorkOrder.TaxAmount)
		assert.Equal(t, model.BookingDone, res.Booking.Status)

		reloaded, err := s.GetWorkOrder(ctx, created.WorkOrder.ID)
		require.NoError(t, err)
		assert.Equal(t, 176.0, reloaded.TotalRevenue)
		assert.Len(t, reloaded.PartsUsed, 1)
		assert.Len(t, reloaded.LaborEntries, 1)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		var invalid *InvalidTransitionError
		_, err := c.CompleteWithBilling(ctx, created.WorkOrder.ID, BillingInput{}, adminActor)
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestStatusHook(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "hook")

	var events []model.WorkOrderStatus
	c := NewCoordinator(s, func(wo *model.WorkOrder, b *model.Booking) {
		events = append(events, wo.Status)
	})

	start, end := window(10, 0, 60)
	created, err := c.CreateWorkOrderWithBooking(ctx, createInput(int64p(1), start, end), adminActor)
	require.NoError(t, err)
	_, err = c.StartWork(ctx, created.WorkOrder.ID, employeeActor(1))
	require.NoError(t, err)
	_, err = c.MarkDone(ctx, created.WorkOrder.ID, "", adminActor)
	require.NoError(t, err)

	assert.Equal(t, []model.WorkOrderStatus{
		model.OrderAssigned, model.OrderInProgress, model.OrderDone,
	}, events)

	// A failed transition must not emit.
	events = nil
	_, err = c.StartWork(ctx, created.WorkOrder.ID, employeeActor(1))
	require.Error(t, err)
	assert.Empty(t, events)
}
