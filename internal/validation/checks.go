package validation

import "deliverus/internal/models"

// Narrow read interfaces the checks depend on. Both the GORM and the
// in-memory repositories satisfy them.
type RestaurantFinder interface {
	GetByID(id uint) (*models.Restaurant, error)
}

type ProductFinder interface {
	GetByIDs(ids []uint) ([]models.Product, error)
	CountAvailable(ids []uint) (int64, error)
}

type OrderFinder interface {
	GetByID(id uint) (*models.Order, error)
}

const (
	msgRestaurantNotFound = "Restaurant not found"
	msgCrossRestaurant    = "Products do not belong to the same restaurant"
	msgUnavailable        = "Some products are not available"
	msgNotPending         = "Order is not in pending state"
)

// RestaurantExists passes when the declared restaurant is persisted.
func RestaurantExists(restaurants RestaurantFinder, restaurantID uint) Check {
	return func() *Failure {
		if _, err := restaurants.GetByID(restaurantID); err != nil {
			return &Failure{Param: "restaurantId", Msg: msgRestaurantNotFound}
		}
		return nil
	}
}

// ProductsAvailable passes when every requested product exists with
// availability=true. The available count is compared against the raw payload
// length, so a payload repeating a product id fails even if that product is
// available.
func ProductsAvailable(products ProductFinder, lines []ProductLine) Check {
	return func() *Failure {
		count, err := products.CountAvailable(productIDs(lines))
		if err != nil || count != int64(len(lines)) {
			return &Failure{Param: "products", Msg: msgUnavailable}
		}
		return nil
	}
}

// SameRestaurant passes when every requested product belongs to the declared
// restaurant. Missing products pass here; ProductsAvailable catches them.
func SameRestaurant(products ProductFinder, restaurantID uint, lines []ProductLine) Check {
	return func() *Failure {
		found, err := products.GetByIDs(productIDs(lines))
		if err != nil {
			return &Failure{Param: "products", Msg: msgCrossRestaurant}
		}
		for _, p := range found {
			if p.RestaurantID != restaurantID {
				return &Failure{Param: "products", Msg: msgCrossRestaurant}
			}
		}
		return nil
	}
}

// OrderIsPending passes when the order exists and is still pending, the only
// state from which a customer may edit or delete it.
func OrderIsPending(orders OrderFinder, orderID uint) Check {
	return func() *Failure {
		order, err := orders.GetByID(orderID)
		if err != nil || order.Status != models.StatusPending {
			return &Failure{Param: "orderId", Msg: msgNotPending}
		}
		return nil
	}
}

// OriginalRestaurantUnchanged passes when every requested product belongs to
// the restaurant of the order being edited. The restaurant association is
// immutable after creation.
func OriginalRestaurantUnchanged(orders OrderFinder, products ProductFinder, orderID uint, lines []ProductLine) Check {
	return func() *Failure {
		order, err := orders.GetByID(orderID)
		if err != nil {
			return &Failure{Param: "products", Msg: msgCrossRestaurant}
		}
		found, err := products.GetByIDs(productIDs(lines))
		if err != nil {
			return &Failure{Param: "products", Msg: msgCrossRestaurant}
		}
		for _, p := range found {
			if p.RestaurantID != order.RestaurantID {
				return &Failure{Param: "products", Msg: msgCrossRestaurant}
			}
		}
		return nil
	}
}
