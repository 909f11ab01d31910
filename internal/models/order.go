package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Lifecycle: pending -> confirmed -> sent -> delivered. An order may only be
// edited or deleted while pending; delivered is terminal.
const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusSent      OrderStatus = "sent"
	StatusDelivered OrderStatus = "delivered"
)

// OrderLine is a (product, quantity) pair attached to an order. UnitPrice is
// a snapshot of the product price at the time the order was placed or edited.
type OrderLine struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"orderId" gorm:"index"`
	ProductID uint    `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Order is a customer's purchase request against one restaurant. The
// restaurant association is immutable after creation; all lines reference
// products of that restaurant.
type Order struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	CustomerID    uint        `json:"customerId" gorm:"index"`
	RestaurantID  uint        `json:"restaurantId" gorm:"index"`
	Status        OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Address       string      `json:"address" gorm:"type:varchar(255)"`
	Price         float64     `json:"price"`
	ShippingCosts float64     `json:"shippingCosts"`
	StartedAt     *time.Time  `json:"startedAt"`
	SentAt        *time.Time  `json:"sentAt"`
	DeliveredAt   *time.Time  `json:"deliveredAt"`
	Lines         []OrderLine `json:"products" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
