// Package repositories holds the order and shop stores. Each store has a
// GORM, a MongoDB and an in-memory driver; services depend only on the
// interfaces below.
//
// Every driver reports a missing record as an apperr NotFound and a
// duplicate shop email as an apperr Conflict. Malformed ids are simply not
// found.
package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/apperr"
)

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id models.OrderID) (*models.Order, error)
	// ListByShop returns the shop's orders newest first.
	ListByShop(ctx context.Context, shopID models.ShopID) ([]models.Order, error)
	// LatestByPhone returns the most recently created order for phone.
	LatestByPhone(ctx context.Context, phone string) (*models.Order, error)
	// UpdateStatus writes only status and updated_at.
	UpdateStatus(ctx context.Context, id models.OrderID, status models.Status, at time.Time) error
}

// ShopRepository persists shop accounts.
type ShopRepository interface {
	Create(ctx context.Context, s *models.Shop) error
	FindByID(ctx context.Context, id models.ShopID) (*models.Shop, error)
	FindByEmail(ctx context.Context, email string) (*models.Shop, error)
	// List returns every shop, or only those whose pincode equals pincode
	// exactly when it is non-empty.
	List(ctx context.Context, pincode string) ([]models.Shop, error)
	Update(ctx context.Context, s *models.Shop) error
}

// Stores bundles the order and shop repositories of one driver.
type Stores struct {
	Orders OrderRepository
	Shops  ShopRepository
}

// NewMemoryStores returns empty in-memory repositories.
func NewMemoryStores() Stores {
	return Stores{Orders: NewMemoryOrderRepository(), Shops: NewMemoryShopRepository()}
}

var (
	errOrderNotFound = apperr.NotFoundf("Order not found")
	errShopNotFound  = apperr.NotFoundf("Shop not found")
	errDuplicateShop = apperr.Conflictf("Shopkeeper already exists")
)

// newestFirst orders by creation time, then id, both descending.
func newestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

// sortShops gives List a stable order: oldest shop first.
func sortShops(shops []models.Shop) {
	sort.SliceStable(shops, func(i, j int) bool {
		if !shops[i].CreatedAt.Equal(shops[j].CreatedAt) {
			return shops[i].CreatedAt.Before(shops[j].CreatedAt)
		}
		return shops[i].ID < shops[j].ID
	})
}

func errDuplicateOrder(id models.OrderID) error {
	return apperr.Conflictf("order " + id.String() + " already exists")
}
