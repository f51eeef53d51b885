package model

import "time"

// Service is a catalog entry for a type of repair work (oil change,
// brake service, inspection, ...).
type Service struct {
	ID        int64   `gorm:"primaryKey"`
	Name      string  `gorm:"uniqueIndex;size:256;not null"`
	BasePrice float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
