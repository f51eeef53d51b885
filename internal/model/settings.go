package model

import "time"

// BusinessSettings is the singleton operating configuration of the shop.
// Exactly one row is expected; every slot computation reads it.
type BusinessSettings struct {
	ID                   int64  `gorm:"primaryKey"`
	Timezone             string `gorm:"size:64;not null"` // IANA name, e.g. "America/New_York"
	OpenTime             string `gorm:"size:5;not null"`  // local wall clock "HH:mm"
	CloseTime            string `gorm:"size:5;not null"`  // must be after OpenTime
	SlotMinutes          int    `gorm:"not null"`
	BufferMinutes        int    `gorm:"not null;default:0"` // advisory, not yet applied to slot math
	AllowCustomerBooking bool   `gorm:"not null;default:true"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
