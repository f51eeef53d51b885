package model

import "time"

// BookingType distinguishes how an appointment entered the system.
type BookingType string

const (
	BookingWalkIn BookingType = "WALKIN"
	BookingOnline BookingType = "ONLINE"
)

// BookingStatus is the customer-facing lifecycle of an appointment.
// PENDING -> ACCEPTED -> (DONE | CANCELLED); DONE and CANCELLED are terminal.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingAccepted  BookingStatus = "ACCEPTED"
	BookingDone      BookingStatus = "DONE"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a scheduled appointment occupying a time window.
// StartAt/EndAt are absolute instants stored and compared in UTC.
type Booking struct {
	ID              int64         `gorm:"primaryKey"`
	CustomerID      int64         `gorm:"index;not null"`
	CreatedByUserID int64         `gorm:"not null"`
	Date            time.Time     `gorm:"index;not null"` // calendar day, midnight UTC
	StartAt         time.Time     `gorm:"index;not null"`
	EndAt           time.Time     `gorm:"index;not null"`
	SlotMinutes     int           `gorm:"not null"`
	Type            BookingType   `gorm:"size:16;not null"`
	Status          BookingStatus `gorm:"size:16;not null;index"`
	Notes           string
	AcceptedAt      *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Associations
	Customer  Customer
	Services  []Service  `gorm:"many2many:booking_services;"`
	WorkOrder *WorkOrder `gorm:"foreignKey:BookingID"`
}

// Window returns the booked [start, end) interval.
func (b *Booking) Window() (time.Time, time.Time) {
	return b.StartAt, b.EndAt
}

// Terminal reports whether the booking can no longer change state.
func (s BookingStatus) Terminal() bool {
	return s == BookingDone || s == BookingCancelled
}
