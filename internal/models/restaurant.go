package models

import "time"

// Restaurant is owned by a user with the owner role. Read-only from the
// order subsystem's perspective.
type Restaurant struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"type:varchar(100)"`
	Address       string    `json:"address" gorm:"type:varchar(255)"`
	ShippingCosts float64   `json:"shippingCosts"`
	UserID        uint      `json:"userId" gorm:"index"`
	Products      []Product `json:"products,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
