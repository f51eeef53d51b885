package model

import "time"

// PushSubscription holds a customer's browser push subscription, used to
// notify them when their work order changes status.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	CustomerID int64     `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
