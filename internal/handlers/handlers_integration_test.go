package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"deliverus/internal/handlers"
	"deliverus/internal/middleware"
	"deliverus/internal/models"
	"deliverus/internal/repositories"
	"deliverus/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds the full Fiber app on an in-memory SQLite database, with
// event publication disabled.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	// One named in-memory database per test, shared across connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Product{},
		&models.Order{},
		&models.OrderLine{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	restaurantRepo := repositories.NewGORMRestaurantRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, jwtSecret)
	restaurantService := services.NewRestaurantService(restaurantRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, restaurantRepo, nil)

	guards := middleware.NewOrderGuards(orderRepo, restaurantRepo)
	authHandler := handlers.NewAuthHandler(authService)
	restaurantHandler := handlers.NewRestaurantHandler(restaurantService, orderService, restaurantRepo)
	orderHandler := handlers.NewOrderHandler(orderService, guards)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	restaurantHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app, db
}

// TestMain suppresses logging for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// registerAndLogin creates a user through the API and returns their token
// and id.
func registerAndLogin(t *testing.T, app *fiber.App, username, role string) (string, uint) {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &registerResp)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])

	return loginResp["token"], registerResp.User.ID
}

// seedRestaurant persists a restaurant owned by ownerID with three products:
// two available, one not.
func seedRestaurant(t *testing.T, db *gorm.DB, ownerID uint) (models.Restaurant, []models.Product) {
	t.Helper()

	restaurant := models.Restaurant{Name: "Casa Paco", Address: "Calle Betis 1", ShippingCosts: 2.5, UserID: ownerID}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("failed to seed restaurant: %v", err)
	}
	products := []models.Product{
		{Name: "Pizza", Price: 10.0, Availability: true, RestaurantID: restaurant.ID},
		{Name: "Pasta", Price: 5.0, Availability: true, RestaurantID: restaurant.ID},
		{Name: "Burger", Price: 8.0, Availability: false, RestaurantID: restaurant.ID},
	}
	if err := db.Create(&products).Error; err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}
	return restaurant, products
}

func orderPayload(restaurantID, productID uint, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"restaurantId": restaurantID,
		"address":      "Calle Feria 2",
		"products": []map[string]interface{}{
			{"productId": productID, "quantity": quantity},
		},
	}
}

func TestHealthAndUnauthenticatedAccess(t *testing.T) {
	app, _ := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]string
	decodeBody(t, resp, &health)
	assert.Equal(t, "healthy", health["status"])

	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateOrder_Success(t *testing.T) {
	app, db := setupApp(t)
	_, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, customerID := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[0].ID, 2))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	decodeBody(t, resp, &order)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, customerID, order.CustomerID)
	assert.Equal(t, restaurant.ID, order.RestaurantID)
	assert.Equal(t, 20.0, order.Price) // 2 * 10.0
	assert.Equal(t, 2.5, order.ShippingCosts)
	if assert.Len(t, order.Lines, 1) {
		assert.Equal(t, products[0].ID, order.Lines[0].ProductID)
		assert.Equal(t, 2, order.Lines[0].Quantity)
	}

	// The order shows up in the customer's list.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	assert.Len(t, orders, 1)
}

func TestCreateOrder_CrossRestaurant(t *testing.T) {
	app, db := setupApp(t)
	_, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, _ := seedRestaurant(t, db, ownerID)

	other := models.Product{Name: "Sushi", Price: 12.0, Availability: true, RestaurantID: restaurant.ID + 100}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("failed to seed foreign product: %v", err)
	}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, other.ID, 1))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Errors []struct {
			Param string `json:"param"`
			Msg   string `json:"msg"`
		} `json:"errors"`
	}
	decodeBody(t, resp, &body)
	msgs := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		msgs = append(msgs, e.Msg)
	}
	assert.Contains(t, msgs, "Products do not belong to the same restaurant")

	// Nothing was persisted.
	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrder_UnavailableProduct(t *testing.T) {
	app, db := setupApp(t)
	_, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[2].ID, 1)) // Burger is unavailable
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

// A payload repeating an available product id is rejected by the
// availability count check. This pins the gate's documented behavior.
func TestCreateOrder_DuplicateProductIDs(t *testing.T) {
	app, db := setupApp(t)
	_, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	payload := map[string]interface{}{
		"restaurantId": restaurant.ID,
		"address":      "Calle Feria 2",
		"products": []map[string]interface{}{
			{"productId": products[0].ID, "quantity": 1},
			{"productId": products[0].ID, "quantity": 1},
		},
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken, payload)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Errors []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	decodeBody(t, resp, &body)
	msgs := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		msgs = append(msgs, e.Msg)
	}
	assert.Contains(t, msgs, "Some products are not available")
}

func TestUpdateOrder(t *testing.T) {
	app, db := setupApp(t)
	_, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[0].ID, 2))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	// Replace the single pizza line with three pastas.
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/orders/%d", order.ID), customerToken,
		map[string]interface{}{
			"address": "Calle Sierpes 3",
			"products": []map[string]interface{}{
				{"productId": products[1].ID, "quantity": 3},
			},
		})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Order
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Calle Sierpes 3", updated.Address)
	assert.Equal(t, 15.0, updated.Price) // 3 * 5.0
	assert.Equal(t, restaurant.ID, updated.RestaurantID)
	if assert.Len(t, updated.Lines, 1) {
		assert.Equal(t, products[1].ID, updated.Lines[0].ProductID)
	}
}

func TestUpdateOrder_RestaurantIDPresent(t *testing.T) {
	app, db := setupApp(t)
	_, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[0].ID, 1))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	// The restaurant association is immutable: restaurantId must be absent.
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/orders/%d", order.ID), customerToken,
		orderPayload(restaurant.ID, products[0].ID, 1))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Errors []struct {
			Param string `json:"param"`
		} `json:"errors"`
	}
	decodeBody(t, resp, &body)
	params := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		params = append(params, e.Param)
	}
	assert.Contains(t, params, "restaurantId")
}

func TestOrderLifecycle(t *testing.T) {
	app, db := setupApp(t)
	ownerToken, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[0].ID, 1))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	orderPath := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	// Customers cannot advance the lifecycle.
	resp = doJSON(t, app, http.MethodPatch, orderPath+"/confirm", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// pending -> confirmed
	resp = doJSON(t, app, http.MethodPatch, orderPath+"/confirm", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var confirmed models.Order
	decodeBody(t, resp, &confirmed)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.StartedAt)

	// Editing a non-pending order fails regardless of payload validity.
	resp = doJSON(t, app, http.MethodPut, orderPath, customerToken,
		map[string]interface{}{
			"address":  "Calle Sierpes 3",
			"products": []map[string]interface{}{{"productId": products[1].ID, "quantity": 1}},
		})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// deliver requires sent, not confirmed.
	resp = doJSON(t, app, http.MethodPatch, orderPath+"/deliver", ownerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// confirmed -> sent
	resp = doJSON(t, app, http.MethodPatch, orderPath+"/send", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var sent models.Order
	decodeBody(t, resp, &sent)
	assert.Equal(t, models.StatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)

	// confirm from sent fails and leaves the status unchanged.
	resp = doJSON(t, app, http.MethodPatch, orderPath+"/confirm", ownerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodGet, orderPath, ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var current models.Order
	decodeBody(t, resp, &current)
	assert.Equal(t, models.StatusSent, current.Status)

	// sent -> delivered
	resp = doJSON(t, app, http.MethodPatch, orderPath+"/deliver", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var delivered models.Order
	decodeBody(t, resp, &delivered)
	assert.Equal(t, models.StatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)
}

func TestOrderVisibility(t *testing.T) {
	app, db := setupApp(t)
	ownerToken, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	strangerToken, _ := registerAndLogin(t, app, "customer2", models.RoleCustomer)
	otherOwnerToken, _ := registerAndLogin(t, app, "owner2", models.RoleOwner)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[0].ID, 1))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	orderPath := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	// The ordering customer and the restaurant's owner can see it.
	resp = doJSON(t, app, http.MethodGet, orderPath, customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodGet, orderPath, ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Another customer and another owner cannot.
	resp = doJSON(t, app, http.MethodGet, orderPath, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodGet, orderPath, otherOwnerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Another customer cannot edit or delete it either.
	resp = doJSON(t, app, http.MethodDelete, orderPath, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The owner dashboard lists the restaurant's orders.
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/restaurants/%d/orders", restaurant.ID), ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	assert.Len(t, orders, 1)

	// But only for its owner.
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/restaurants/%d/orders", restaurant.ID), otherOwnerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteOrder(t *testing.T) {
	app, db := setupApp(t)
	ownerToken, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[0].ID, 1))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	orderPath := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	// Deleting a pending order removes it and its lines.
	resp = doJSON(t, app, http.MethodDelete, orderPath, customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodGet, orderPath, customerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
	var lineCount int64
	db.Model(&models.OrderLine{}).Where("order_id = ?", order.ID).Count(&lineCount)
	assert.Zero(t, lineCount)

	// A confirmed order cannot be deleted.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", customerToken,
		orderPayload(restaurant.ID, products[0].ID, 1))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var second models.Order
	decodeBody(t, resp, &second)
	secondPath := fmt.Sprintf("/api/v1/orders/%d", second.ID)

	resp = doJSON(t, app, http.MethodPatch, secondPath+"/confirm", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodDelete, secondPath, customerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRestaurantBrowse(t *testing.T) {
	app, db := setupApp(t)
	_, ownerID := registerAndLogin(t, app, "owner1", models.RoleOwner)
	customerToken, _ := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	restaurant, products := seedRestaurant(t, db, ownerID)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/restaurants", customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var restaurants []models.Restaurant
	decodeBody(t, resp, &restaurants)
	assert.Len(t, restaurants, 1)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/restaurants/%d", restaurant.ID), customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var detail models.Restaurant
	decodeBody(t, resp, &detail)
	assert.Len(t, detail.Products, len(products))

	resp = doJSON(t, app, http.MethodGet, "/api/v1/restaurants/999", customerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
