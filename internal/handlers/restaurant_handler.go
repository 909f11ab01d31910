package handlers

import (
	"errors"
	"log"

	"deliverus/internal/middleware"
	"deliverus/internal/models"
	"deliverus/internal/repositories"
	"deliverus/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RestaurantHandler handles the restaurant browse surface and the owner's
// order dashboard.
type RestaurantHandler struct {
	restaurantService *services.RestaurantService
	orderService      *services.OrderService
	restaurantRepo    repositories.RestaurantRepository
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(restaurantService *services.RestaurantService, orderService *services.OrderService, restaurantRepo repositories.RestaurantRepository) *RestaurantHandler {
	return &RestaurantHandler{
		restaurantService: restaurantService,
		orderService:      orderService,
		restaurantRepo:    restaurantRepo,
	}
}

// RegisterRoutes registers the restaurant routes with the Fiber app.
func (h *RestaurantHandler) RegisterRoutes(router fiber.Router) {
	restaurants := router.Group("/restaurants")
	restaurants.Get("/", h.HandleGetRestaurants)
	restaurants.Get("/:restaurantId", h.HandleGetRestaurant)
	restaurants.Get("/:restaurantId/orders",
		middleware.RequireRole(models.RoleOwner),
		h.HandleGetRestaurantOrders)
}

// HandleGetRestaurants retrieves all restaurants.
func (h *RestaurantHandler) HandleGetRestaurants(c *fiber.Ctx) error {
	restaurants, err := h.restaurantService.GetAllRestaurants()
	if err != nil {
		log.Printf("Error getting restaurants: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve restaurants",
			"error":   err.Error(),
		})
	}
	return c.JSON(restaurants)
}

// HandleGetRestaurant retrieves a restaurant together with its products.
func (h *RestaurantHandler) HandleGetRestaurant(c *fiber.Ctx) error {
	restaurant, err := h.loadRestaurant(c)
	if restaurant == nil {
		return err
	}
	full, err := h.restaurantService.GetRestaurantByID(restaurant.ID)
	if err != nil {
		log.Printf("Error getting restaurant %d: %v", restaurant.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve restaurant",
			"error":   err.Error(),
		})
	}
	return c.JSON(full)
}

// HandleGetRestaurantOrders retrieves the orders placed at a restaurant the
// authenticated owner owns.
func (h *RestaurantHandler) HandleGetRestaurantOrders(c *fiber.Ctx) error {
	restaurant, err := h.loadRestaurant(c)
	if restaurant == nil {
		return err
	}
	if restaurant.UserID != middleware.UserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Not enough privileges for this restaurant",
		})
	}
	orders, err := h.orderService.ListByRestaurant(restaurant.ID)
	if err != nil {
		log.Printf("Error listing orders for restaurant %d: %v", restaurant.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// loadRestaurant resolves :restaurantId, writing the error response itself
// when the restaurant cannot be loaded.
func (h *RestaurantHandler) loadRestaurant(c *fiber.Ctx) (*models.Restaurant, error) {
	restaurantID, err := c.ParamsInt("restaurantId")
	if err != nil || restaurantID < 1 {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Restaurant not found",
		})
	}
	restaurant, err := h.restaurantRepo.GetByID(uint(restaurantID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Restaurant not found",
			})
		}
		log.Printf("Error loading restaurant %d: %v", restaurantID, err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve restaurant",
		})
	}
	return restaurant, nil
}
