package middleware

import (
	"errors"
	"log"

	"deliverus/internal/models"
	"deliverus/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

const orderLocal = "order"

// OrderGuards are the route-level preconditions that run between
// authentication and the order handlers: entity loading, visibility,
// ownership, and predecessor-state checks.
type OrderGuards struct {
	orders      repositories.OrderRepository
	restaurants repositories.RestaurantRepository
}

// NewOrderGuards creates a new OrderGuards.
func NewOrderGuards(orders repositories.OrderRepository, restaurants repositories.RestaurantRepository) *OrderGuards {
	return &OrderGuards{
		orders:      orders,
		restaurants: restaurants,
	}
}

// LoadOrder resolves :orderId, responding 404 when it does not exist. The
// loaded order is stored in the request locals for the guards and handler.
func (g *OrderGuards) LoadOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := c.ParamsInt("orderId")
		if err != nil || orderID < 1 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		order, err := g.orders.GetByID(uint(orderID))
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"message": "Order not found",
				})
			}
			log.Printf("Error loading order %d: %v", orderID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not retrieve order",
			})
		}
		c.Locals(orderLocal, order)
		return c.Next()
	}
}

// GuardedOrder returns the order stored by LoadOrder.
func GuardedOrder(c *fiber.Ctx) *models.Order {
	order, _ := c.Locals(orderLocal).(*models.Order)
	return order
}

// CheckOrderVisible admits a customer viewing their own order, or an owner
// viewing an order placed at a restaurant they own.
func (g *OrderGuards) CheckOrderVisible() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order := GuardedOrder(c)
		switch Role(c) {
		case models.RoleCustomer:
			if order.CustomerID == UserID(c) {
				return c.Next()
			}
		case models.RoleOwner:
			if g.ownsRestaurant(c, order.RestaurantID) {
				return c.Next()
			}
		}
		return forbidden(c)
	}
}

// CheckOrderCustomer admits only the customer who placed the order.
func (g *OrderGuards) CheckOrderCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GuardedOrder(c).CustomerID != UserID(c) {
			return forbidden(c)
		}
		return c.Next()
	}
}

// CheckOrderOwnership admits only the owner of the order's restaurant.
func (g *OrderGuards) CheckOrderOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !g.ownsRestaurant(c, GuardedOrder(c).RestaurantID) {
			return forbidden(c)
		}
		return c.Next()
	}
}

// CheckOrderIsPending guards edit, delete, and the confirm transition.
func (g *OrderGuards) CheckOrderIsPending() fiber.Handler {
	return g.requireStatus(models.StatusPending)
}

// CheckOrderCanBeSent requires the order to be confirmed.
func (g *OrderGuards) CheckOrderCanBeSent() fiber.Handler {
	return g.requireStatus(models.StatusConfirmed)
}

// CheckOrderCanBeDelivered requires the order to be sent.
func (g *OrderGuards) CheckOrderCanBeDelivered() fiber.Handler {
	return g.requireStatus(models.StatusSent)
}

// requireStatus rejects the request with a conflict unless the order is in
// the exact predecessor state for the attempted operation.
func (g *OrderGuards) requireStatus(status models.OrderStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order := GuardedOrder(c)
		if order.Status != status {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Order is not in " + string(status) + " state",
				"status":  order.Status,
			})
		}
		return c.Next()
	}
}

func (g *OrderGuards) ownsRestaurant(c *fiber.Ctx, restaurantID uint) bool {
	restaurant, err := g.restaurants.GetByID(restaurantID)
	if err != nil {
		log.Printf("Error loading restaurant %d for ownership check: %v", restaurantID, err)
		return false
	}
	return restaurant.UserID == UserID(c)
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": "Not enough privileges for this order",
	})
}
