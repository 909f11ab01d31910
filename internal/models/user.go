package models

import "time"

// Roles a user can hold. Customers place orders, owners run restaurants.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
)

// User represents an account of either role.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password  string    `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Role      string    `json:"role" gorm:"type:varchar(20);default:'customer'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
