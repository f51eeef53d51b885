package model

import "time"

// WorkOrderStatus is the authoritative state machine of repair work.
// Transition legality lives in the workorder package; this file only names
// the states and the terminal set.
type WorkOrderStatus string

const (
	OrderDraft      WorkOrderStatus = "DRAFT"
	OrderOpen       WorkOrderStatus = "OPEN"
	OrderAssigned   WorkOrderStatus = "ASSIGNED"
	OrderInProgress WorkOrderStatus = "IN_PROGRESS"
	OrderWaiting    WorkOrderStatus = "WAITING"
	OrderDone       WorkOrderStatus = "DONE"
	OrderCompleted  WorkOrderStatus = "COMPLETED"
	OrderCancelled  WorkOrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition out of s is legal.
func (s WorkOrderStatus) Terminal() bool {
	return s == OrderDone || s == OrderCompleted || s == OrderCancelled
}

// PartUsed is one line of parts consumed by a work order.
type PartUsed struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// LaborEntry is one line of billed labor.
type LaborEntry struct {
	Hours float64 `json:"hours"`
	Rate  float64 `json:"rate"`
}

// WorkOrder is the operational unit of actual repair work, always traceable
// to exactly one Booking. EmployeeID stays nil until assignment.
type WorkOrder struct {
	ID           int64           `gorm:"primaryKey"`
	BookingID    int64           `gorm:"uniqueIndex;not null"`
	CustomerID   int64           `gorm:"index;not null"`
	EmployeeID   *int64          `gorm:"index"`
	Status       WorkOrderStatus `gorm:"size:16;not null;index"`
	OpenedAt     time.Time       `gorm:"not null"`
	ClosedAt     *time.Time
	Notes        string
	PartsUsed    []PartUsed   `gorm:"serializer:json"`
	LaborEntries []LaborEntry `gorm:"serializer:json"`
	TaxRate      float64
	TaxAmount    *float64 // explicit override; when nil, computed from TaxRate
	TotalRevenue float64
	Photos       []string `gorm:"serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Associations
	Booking  Booking
	Services []Service `gorm:"many2many:work_order_services;"`
}
