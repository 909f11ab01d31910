package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"deliverus/internal/models"
	"deliverus/internal/repositories"
	"deliverus/internal/validation"

	"github.com/google/uuid"
)

// EventPublisher publishes order lifecycle events. A nil publisher disables
// publication (tests, degraded startup).
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// PlaceOrderInput is the candidate for a new order, already field-validated.
type PlaceOrderInput struct {
	RestaurantID uint
	Address      string
	Products     []validation.ProductLine
}

// EditOrderInput is the candidate for editing a pending order. The restaurant
// association cannot be changed, so it carries no restaurant id.
type EditOrderInput struct {
	Address  string
	Products []validation.ProductLine
}

// OrderService handles business logic related to orders: the predicate gate,
// price computation, lifecycle transitions, and event publication.
type OrderService struct {
	orderRepo      repositories.OrderRepository
	productRepo    repositories.ProductRepository
	restaurantRepo repositories.RestaurantRepository
	publisher      EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, restaurantRepo repositories.RestaurantRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		restaurantRepo: restaurantRepo,
		publisher:      publisher,
	}
}

// ListByCustomer retrieves a customer's orders, newest first.
func (s *OrderService) ListByCustomer(customerID uint) ([]models.Order, error) {
	return s.orderRepo.ListByCustomer(customerID)
}

// ListByRestaurant retrieves the orders placed at a restaurant, newest first.
func (s *OrderService) ListByRestaurant(restaurantID uint) ([]models.Order, error) {
	return s.orderRepo.ListByRestaurant(restaurantID)
}

// GetOrderByID retrieves a single order with its lines.
func (s *OrderService) GetOrderByID(id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// Create runs the creation gate and, if it passes, persists a new pending
// order with its lines, computed price, and the restaurant's shipping costs.
// Gate failures are returned separately from infrastructure errors.
func (s *OrderService) Create(customerID uint, in PlaceOrderInput) (*models.Order, []validation.Failure, error) {
	failures := validation.Run(
		validation.RestaurantExists(s.restaurantRepo, in.RestaurantID),
		validation.ProductsAvailable(s.productRepo, in.Products),
		validation.SameRestaurant(s.productRepo, in.RestaurantID, in.Products),
	)
	if len(failures) > 0 {
		return nil, failures, nil
	}

	restaurant, err := s.restaurantRepo.GetByID(in.RestaurantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load restaurant %d: %w", in.RestaurantID, err)
	}

	lines, total, err := s.buildLines(in.Products)
	if err != nil {
		return nil, nil, err
	}

	order := &models.Order{
		CustomerID:    customerID,
		RestaurantID:  in.RestaurantID,
		Status:        models.StatusPending,
		Address:       in.Address,
		Price:         total,
		ShippingCosts: restaurant.ShippingCosts,
		Lines:         lines,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publishEvent("order.created", order)
	return order, nil, nil
}

// Update runs the edit gate and, if it passes, replaces the pending order's
// lines and address and recomputes its price. The restaurant association and
// shipping costs are left untouched.
func (s *OrderService) Update(orderID uint, in EditOrderInput) (*models.Order, []validation.Failure, error) {
	failures := validation.Run(
		validation.OrderIsPending(s.orderRepo, orderID),
		validation.ProductsAvailable(s.productRepo, in.Products),
		validation.OriginalRestaurantUnchanged(s.orderRepo, s.productRepo, orderID, in.Products),
	)
	if len(failures) > 0 {
		return nil, failures, nil
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}

	lines, total, err := s.buildLines(in.Products)
	if err != nil {
		return nil, nil, err
	}

	order.Address = in.Address
	order.Price = total
	order.Lines = lines
	if err := s.orderRepo.Update(order); err != nil {
		return nil, nil, fmt.Errorf("failed to update order %d: %w", orderID, err)
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}

// Delete removes a pending order and its lines. Deleting an order in any
// other state is a state conflict.
func (s *OrderService) Delete(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order.Status != models.StatusPending {
		return fmt.Errorf("order %d is not pending: %w", orderID, repositories.ErrStateConflict)
	}
	return s.orderRepo.Delete(orderID)
}

// Confirm moves a pending order to confirmed.
func (s *OrderService) Confirm(orderID uint) (*models.Order, error) {
	return s.transition(orderID, models.StatusPending, models.StatusConfirmed)
}

// Send moves a confirmed order to sent.
func (s *OrderService) Send(orderID uint) (*models.Order, error) {
	return s.transition(orderID, models.StatusConfirmed, models.StatusSent)
}

// Deliver moves a sent order to delivered, the terminal state.
func (s *OrderService) Deliver(orderID uint) (*models.Order, error) {
	return s.transition(orderID, models.StatusSent, models.StatusDelivered)
}

func (s *OrderService) transition(orderID uint, from, to models.OrderStatus) (*models.Order, error) {
	if err := s.orderRepo.TransitionStatus(orderID, from, to); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publishEvent("order.status_changed", order)
	return order, nil
}

// buildLines snapshots unit prices for the requested products and computes
// the order total. The gate guarantees every requested product exists.
func (s *OrderService) buildLines(requested []validation.ProductLine) ([]models.OrderLine, float64, error) {
	ids := make([]uint, 0, len(requested))
	for _, line := range requested {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load products: %w", err)
	}
	priceByID := make(map[uint]float64, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
	}

	var total float64
	lines := make([]models.OrderLine, 0, len(requested))
	for _, line := range requested {
		unitPrice, ok := priceByID[line.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("product %d: %w", line.ProductID, repositories.ErrNotFound)
		}
		lines = append(lines, models.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
		total += unitPrice * float64(line.Quantity)
	}
	return lines, total, nil
}

// publishEvent emits an order lifecycle event. Publication failure is logged
// and never fails the request.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.publisher == nil {
		log.Println("Event publisher is not initialized. Skipping message publication.")
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"eventId":    uuid.New().String(),
		"orderId":    order.ID,
		"customerId": order.CustomerID,
		"status":     order.Status,
		"total":      order.Price + order.ShippingCosts,
		"occurredAt": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Failed to marshal order event: %v", err)
		return
	}
	if err := s.publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %d: %v", routingKey, order.ID, err)
	}
}
