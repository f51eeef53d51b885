package model

import "time"

// UserType identifies the role a user acts under.
type UserType string

const (
	UserAdmin    UserType = "ADMIN"
	UserEmployee UserType = "EMPLOYEE"
	UserCustomer UserType = "CUSTOMER"
)

// User carries login identity and the active flag. The active flag, not the
// employee profile, decides whether an employee counts toward slot capacity.
type User struct {
	ID           int64    `gorm:"primaryKey"`
	Email        string   `gorm:"uniqueIndex;size:256;not null"`
	PasswordHash string   `gorm:"size:256"`
	Type         UserType `gorm:"size:16;not null"`
	Active       bool     `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
