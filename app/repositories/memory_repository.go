package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/quickkiraana/kiraana/app/models"
)

// MemoryOrderRepository keeps orders in a map. Used by tests and
// STORE_DRIVER=memory.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[models.OrderID]models.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[models.OrderID]models.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return errDuplicateOrder(o.ID)
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id models.OrderID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errOrderNotFound
	}
	return &o, nil
}

func (r *MemoryOrderRepository) ListByShop(_ context.Context, shopID models.ShopID) ([]models.Order, error) {
	r.mu.RLock()
	out := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.ShopID == shopID {
			out = append(out, o)
		}
	}
	r.mu.RUnlock()

	newestFirst(out)
	return out, nil
}

func (r *MemoryOrderRepository) LatestByPhone(_ context.Context, phone string) (*models.Order, error) {
	r.mu.RLock()
	var matches []models.Order
	for _, o := range r.orders {
		if o.CustomerPhone == phone {
			matches = append(matches, o)
		}
	}
	r.mu.RUnlock()

	if len(matches) == 0 {
		return nil, errOrderNotFound
	}
	newestFirst(matches)
	return &matches[0], nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id models.OrderID, status models.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return errOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	r.orders[id] = o
	return nil
}

// Count is the number of stored orders.
func (r *MemoryOrderRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// MemoryShopRepository keeps shops in a map keyed by id with an email index.
type MemoryShopRepository struct {
	mu      sync.RWMutex
	shops   map[models.ShopID]models.Shop
	byEmail map[string]models.ShopID
}

func NewMemoryShopRepository() *MemoryShopRepository {
	return &MemoryShopRepository{
		shops:   make(map[models.ShopID]models.Shop),
		byEmail: make(map[string]models.ShopID),
	}
}

func (r *MemoryShopRepository) Create(_ context.Context, s *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[s.Email]; exists {
		return errDuplicateShop
	}
	r.shops[s.ID] = *s
	r.byEmail[s.Email] = s.ID
	return nil
}

func (r *MemoryShopRepository) FindByID(_ context.Context, id models.ShopID) (*models.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shops[id]
	if !ok {
		return nil, errShopNotFound
	}
	return &s, nil
}

func (r *MemoryShopRepository) FindByEmail(_ context.Context, email string) (*models.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, errShopNotFound
	}
	s := r.shops[id]
	return &s, nil
}

func (r *MemoryShopRepository) List(_ context.Context, pincode string) ([]models.Shop, error) {
	r.mu.RLock()
	out := make([]models.Shop, 0, len(r.shops))
	for _, s := range r.shops {
		if pincode == "" || s.Pincode == pincode {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sortShops(out)
	return out, nil
}

func (r *MemoryShopRepository) Update(_ context.Context, s *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.shops[s.ID]
	if !ok {
		return errShopNotFound
	}
	if owner, taken := r.byEmail[s.Email]; taken && owner != s.ID {
		return errDuplicateShop
	}
	delete(r.byEmail, old.Email)
	r.shops[s.ID] = *s
	r.byEmail[s.Email] = s.ID
	return nil
}
