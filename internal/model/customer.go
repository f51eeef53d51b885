package model

import "time"

// Customer is the owner of vehicles and bookings.
type Customer struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    *int64 `gorm:"uniqueIndex"` // nil for walk-ins without an account
	FullName  string `gorm:"size:256;not null"`
	Phone     string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
