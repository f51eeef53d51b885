package model

import "time"

// EmployeeProfile holds the mechanic-facing details of a staff member.
// Linked 1:1 to a User account; deactivating the User removes the employee
// from capacity counts without deleting assignment history.
type EmployeeProfile struct {
	ID         int64  `gorm:"primaryKey"`
	UserID     int64  `gorm:"uniqueIndex;not null"`
	FullName   string `gorm:"size:256;not null"`
	Title      string `gorm:"size:128"`
	HourlyRate float64
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Associations
	User User `gorm:"constraint:OnDelete:CASCADE"`
}
