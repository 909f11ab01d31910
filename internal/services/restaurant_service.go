package services

import (
	"deliverus/internal/models"
	"deliverus/internal/repositories"
)

// RestaurantService handles the read surface both apps browse before and
// after ordering.
type RestaurantService struct {
	restaurantRepo repositories.RestaurantRepository
	productRepo    repositories.ProductRepository
}

// NewRestaurantService creates a new RestaurantService.
func NewRestaurantService(restaurantRepo repositories.RestaurantRepository, productRepo repositories.ProductRepository) *RestaurantService {
	return &RestaurantService{
		restaurantRepo: restaurantRepo,
		productRepo:    productRepo,
	}
}

// GetAllRestaurants retrieves all restaurants.
func (s *RestaurantService) GetAllRestaurants() ([]models.Restaurant, error) {
	return s.restaurantRepo.GetAll()
}

// GetRestaurantByID retrieves a restaurant together with its products.
func (s *RestaurantService) GetRestaurantByID(id uint) (*models.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.GetByRestaurant(id)
	if err != nil {
		return nil, err
	}
	restaurant.Products = products
	return restaurant, nil
}
