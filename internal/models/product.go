package models

import "time"

// Product belongs to exactly one restaurant. Orders may only reference
// products that are currently available.
type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100)"`
	Description  string    `json:"description" gorm:"type:varchar(500)"`
	Price        float64   `json:"price"`
	Availability bool      `json:"availability" gorm:"default:true"`
	RestaurantID uint      `json:"restaurantId" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
