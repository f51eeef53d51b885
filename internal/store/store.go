package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"garage-backend/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStaleStatus is returned by the guarded status update when the work order
// no longer holds the expected status. It closes the read-then-write race
// between two concurrent transitions: only one of them can match the guard.
var ErrStaleStatus = errors.New("work order status changed concurrently")

// Store defines the data access interface the scheduling and work-order cores
// are written against. The gorm implementation is the only one in production;
// tests run the same implementation on in-memory sqlite.
type Store interface {
	// DB exposes the underlying handle for read-only queries the interface
	// does not cover (HTTP listing endpoints, subscriptions).
	DB() *gorm.DB

	// Transaction runs fn against a Store bound to a single database
	// transaction. A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	BusinessSettings(ctx context.Context) (*model.BusinessSettings, error)
	SaveBusinessSettings(ctx context.Context, settings *model.BusinessSettings) error

	ActiveEmployees(ctx context.Context) ([]model.EmployeeProfile, error)
	GetEmployee(ctx context.Context, id int64) (*model.EmployeeProfile, error)

	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	BookingsOverlapping(ctx context.Context, start, end time.Time, statuses []model.BookingStatus) ([]model.Booking, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error

	GetWorkOrder(ctx context.Context, id int64) (*model.WorkOrder, error)
	CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error
	UpdateWorkOrder(ctx context.Context, wo *model.WorkOrder) error
	// UpdateWorkOrderStatusGuarded moves the work order from the expected
	// status to the new one in a single conditional UPDATE. Returns
	// ErrStaleStatus when the row no longer matches.
	UpdateWorkOrderStatusGuarded(ctx context.Context, id int64, expected, next model.WorkOrderStatus) error

	FindConflictingWorkOrder(ctx context.Context, employeeID int64, start, end time.Time, excludeID int64, busy []model.WorkOrderStatus) (*model.WorkOrder, error)

	AttachBookingServices(ctx context.Context, b *model.Booking, serviceIDs []int64) error
	AttachWorkOrderServices(ctx context.Context, wo *model.WorkOrder, serviceIDs []int64) error
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) BusinessSettings(ctx context.Context) (*model.BusinessSettings, error) {
	var settings model.BusinessSettings
	err := s.db.WithContext(ctx).Order("id").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("business settings: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch business settings: %w", err)
	}
	return &settings, nil
}

func (s *gormStore) SaveBusinessSettings(ctx context.Context, settings *model.BusinessSettings) error {
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("save business settings: %w", err)
	}
	return nil
}

func (s *gormStore) ActiveEmployees(ctx context.Context) ([]model.EmployeeProfile, error) {
	var employees []model.EmployeeProfile
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = employee_profiles.user_id").
		Where("users.active = ?", true).
		Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("fetch active employees: %w", err)
	}
	return employees, nil
}

func (s *gormStore) GetEmployee(ctx context.Context, id int64) (*model.EmployeeProfile, error) {
	var employee model.EmployeeProfile
	err := s.db.WithContext(ctx).Preload("User").First(&employee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch employee %d: %w", id, err)
	}
	return &employee, nil
}

func (s *gormStore) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).Preload("WorkOrder").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch booking %d: %w", id, err)
	}
	return &booking, nil
}

// BookingsOverlapping returns bookings whose [start_at, end_at) window
// overlaps [start, end), restricted to the given statuses. The WorkOrder
// association is preloaded so callers can see employee assignments.
func (s *gormStore) BookingsOverlapping(ctx context.Context, start, end time.Time, statuses []model.BookingStatus) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("start_at < ? AND end_at > ?", end, start).
		Where("status IN ?", statuses).
		Preload("WorkOrder").
		Order("start_at").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("fetch overlapping bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Omit("WorkOrder", "Customer").Create(b).Error; err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error; err != nil {
		return fmt.Errorf("update booking %d: %w", b.ID, err)
	}
	return nil
}

func (s *gormStore) GetWorkOrder(ctx context.Context, id int64) (*model.WorkOrder, error) {
	var wo model.WorkOrder
	err := s.db.WithContext(ctx).Preload("Booking").First(&wo, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("work order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch work order %d: %w", id, err)
	}
	return &wo, nil
}

func (s *gormStore) CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error {
	if err := s.db.WithContext(ctx).Omit("Booking").Create(wo).Error; err != nil {
		return fmt.Errorf("create work order: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateWorkOrder(ctx context.Context, wo *model.WorkOrder) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(wo).Error; err != nil {
		return fmt.Errorf("update work order %d: %w", wo.ID, err)
	}
	return nil
}

func (s *gormStore) UpdateWorkOrderStatusGuarded(ctx context.Context, id int64, expected, next model.WorkOrderStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.WorkOrder{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if res.Error != nil {
		return fmt.Errorf("guarded status update for work order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("work order %d not in status %s: %w", id, expected, ErrStaleStatus)
	}
	return nil
}

// FindConflictingWorkOrder returns any work order held by the employee in one
// of the busy statuses whose booking window overlaps [start, end), half-open.
// excludeID lets a reassignment ignore the order being moved. Returns
// (nil, nil) when the employee is free.
func (s *gormStore) FindConflictingWorkOrder(ctx context.Context, employeeID int64, start, end time.Time, excludeID int64, busy []model.WorkOrderStatus) (*model.WorkOrder, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = work_orders.booking_id").
		Where("work_orders.employee_id = ?", employeeID).
		Where("work_orders.status IN ?", busy).
		Where("bookings.start_at < ? AND bookings.end_at > ?", end, start)
	if excludeID > 0 {
		q = q.Where("work_orders.id <> ?", excludeID)
	}

	var wo model.WorkOrder
	err := q.Preload("Booking").First(&wo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conflict lookup for employee %d: %w", employeeID, err)
	}
	return &wo, nil
}

func (s *gormStore) AttachBookingServices(ctx context.Context, b *model.Booking, serviceIDs []int64) error {
	return s.attachServices(ctx, b, "Services", serviceIDs)
}

func (s *gormStore) AttachWorkOrderServices(ctx context.Context, wo *model.WorkOrder, serviceIDs []int64) error {
	return s.attachServices(ctx, wo, "Services", serviceIDs)
}

func (s *gormStore) attachServices(ctx context.Context, owner any, association string, serviceIDs []int64) error {
	if len(serviceIDs) == 0 {
		return nil
	}
	var services []model.Service
	if err := s.db.WithContext(ctx).Find(&services, serviceIDs).Error; err != nil {
		return fmt.Errorf("fetch services: %w", err)
	}
	if len(services) != len(serviceIDs) {
		return fmt.Errorf("services %v: %w", serviceIDs, ErrNotFound)
	}
	if err := s.db.WithContext(ctx).Model(owner).Association(association).Append(&services); err != nil {
		return fmt.Errorf("attach services: %w", err)
	}
	return nil
}
