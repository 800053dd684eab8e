package services

import (
	"context"
	"strings"
	"time"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/repositories"
)

// ShopService is the public shop directory.
type ShopService struct {
	shops   repositories.ShopRepository
	timeout time.Duration
}

func NewShopService(shops repositories.ShopRepository, timeout time.Duration) *ShopService {
	return &ShopService{shops: shops, timeout: timeout}
}

// GetShops lists every shop, or only those in pincode when given.
func (s *ShopService) GetShops(ctx context.Context, pincode string) ([]models.Shop, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.shops.List(ctx, strings.TrimSpace(pincode))
}

func (s *ShopService) GetShopByID(ctx context.Context, id models.ShopID) (*models.Shop, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.shops.FindByID(ctx, id)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
