package handlers

import (
	"errors"
	"log"

	"deliverus/internal/middleware"
	"deliverus/internal/models"
	"deliverus/internal/repositories"
	"deliverus/internal/services"
	"deliverus/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	guards   *middleware.OrderGuards
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, guards *middleware.OrderGuards) *OrderHandler {
	return &OrderHandler{
		service:  service,
		guards:   guards,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. Guard
// ordering per route: role, entity load, ownership, predecessor state.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	g := h.guards
	orders := router.Group("/orders")

	orders.Get("/", middleware.RequireRole(models.RoleCustomer), h.HandleListMyOrders)
	orders.Post("/", middleware.RequireRole(models.RoleCustomer), h.HandleCreateOrder)

	orders.Get("/:orderId", g.LoadOrder(), g.CheckOrderVisible(), h.HandleGetOrder)
	orders.Put("/:orderId",
		middleware.RequireRole(models.RoleCustomer),
		g.LoadOrder(), g.CheckOrderCustomer(), g.CheckOrderIsPending(),
		h.HandleUpdateOrder)
	orders.Delete("/:orderId",
		middleware.RequireRole(models.RoleCustomer),
		g.LoadOrder(), g.CheckOrderCustomer(), g.CheckOrderIsPending(),
		h.HandleDeleteOrder)

	orders.Patch("/:orderId/confirm",
		middleware.RequireRole(models.RoleOwner),
		g.LoadOrder(), g.CheckOrderOwnership(), g.CheckOrderIsPending(),
		h.HandleConfirmOrder)
	orders.Patch("/:orderId/send",
		middleware.RequireRole(models.RoleOwner),
		g.LoadOrder(), g.CheckOrderOwnership(), g.CheckOrderCanBeSent(),
		h.HandleSendOrder)
	orders.Patch("/:orderId/deliver",
		middleware.RequireRole(models.RoleOwner),
		g.LoadOrder(), g.CheckOrderOwnership(), g.CheckOrderCanBeDelivered(),
		h.HandleDeliverOrder)
}

// ProductRequest is one requested line in a create/update payload.
type ProductRequest struct {
	ProductID uint `json:"productId" validate:"required,min=1"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest is the payload for placing a new order.
type CreateOrderRequest struct {
	RestaurantID uint             `json:"restaurantId" validate:"required,min=1"`
	Address      string           `json:"address" validate:"required"`
	Products     []ProductRequest `json:"products" validate:"required,min=1,dive"`
}

// UpdateOrderRequest is the payload for editing a pending order. The
// restaurant association is immutable, so restaurantId must be absent.
type UpdateOrderRequest struct {
	RestaurantID *uint            `json:"restaurantId" validate:"isdefault"`
	Address      string           `json:"address" validate:"required"`
	Products     []ProductRequest `json:"products" validate:"required,min=1,dive"`
}

// HandleListMyOrders retrieves the authenticated customer's orders.
func (h *OrderHandler) HandleListMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListByCustomer(middleware.UserID(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrder returns the order loaded and admitted by the guards.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	return c.JSON(middleware.GuardedOrder(c))
}

// HandleCreateOrder creates a new pending order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return fieldValidationResponse(c, err)
	}

	order, failures, err := h.service.Create(middleware.UserID(c), services.PlaceOrderInput{
		RestaurantID: req.RestaurantID,
		Address:      req.Address,
		Products:     toProductLines(req.Products),
	})
	if len(failures) > 0 {
		return gateFailureResponse(c, failures)
	}
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrder replaces a pending order's lines and address.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var req UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update order body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return fieldValidationResponse(c, err)
	}

	order, failures, err := h.service.Update(middleware.GuardedOrder(c).ID, services.EditOrderInput{
		Address:  req.Address,
		Products: toProductLines(req.Products),
	})
	if len(failures) > 0 {
		return gateFailureResponse(c, failures)
	}
	if err != nil {
		log.Printf("Error updating order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update order",
			"error":   err.Error(),
		})
	}

	return c.JSON(order)
}

// HandleDeleteOrder removes a pending order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := middleware.GuardedOrder(c).ID
	if err := h.service.Delete(orderID); err != nil {
		return h.transitionError(c, err, "Could not delete order")
	}
	return c.JSON(fiber.Map{
		"message": "Order deleted successfully",
	})
}

// HandleConfirmOrder moves a pending order to confirmed.
func (h *OrderHandler) HandleConfirmOrder(c *fiber.Ctx) error {
	return h.handleTransition(c, h.service.Confirm)
}

// HandleSendOrder moves a confirmed order to sent.
func (h *OrderHandler) HandleSendOrder(c *fiber.Ctx) error {
	return h.handleTransition(c, h.service.Send)
}

// HandleDeliverOrder moves a sent order to delivered.
func (h *OrderHandler) HandleDeliverOrder(c *fiber.Ctx) error {
	return h.handleTransition(c, h.service.Deliver)
}

func (h *OrderHandler) handleTransition(c *fiber.Ctx, transition func(uint) (*models.Order, error)) error {
	order, err := transition(middleware.GuardedOrder(c).ID)
	if err != nil {
		return h.transitionError(c, err, "Could not update order status")
	}
	return c.JSON(order)
}

func (h *OrderHandler) transitionError(c *fiber.Ctx, err error, message string) error {
	log.Printf("%s: %v", message, err)
	switch {
	case errors.Is(err, repositories.ErrStateConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}

func toProductLines(requests []ProductRequest) []validation.ProductLine {
	lines := make([]validation.ProductLine, 0, len(requests))
	for _, r := range requests {
		lines = append(lines, validation.ProductLine{
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
		})
	}
	return lines
}
