package services

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/repositories"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/cache"
	"github.com/quickkiraana/kiraana/pkg/logger"
)

const (
	trackOrderKey = "track:order:"
	trackPhoneKey = "track:phone:"
)

// TrackingService answers public "where is my order" lookups. Results are
// cached briefly; order events drop the affected keys.
type TrackingService struct {
	orders  repositories.OrderRepository
	shops   repositories.ShopRepository
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration

	// generation counts invalidations. A load that saw it change drops
	// what it just cached.
	generation atomic.Uint64
}

// NewTrackingService builds the resolver. A nil cache disables caching.
func NewTrackingService(orders repositories.OrderRepository, shops repositories.ShopRepository, c cache.Cache, ttl, timeout time.Duration) *TrackingService {
	return &TrackingService{orders: orders, shops: shops, cache: c, ttl: ttl, timeout: timeout}
}

// ByIdentifier resolves a single order by id. Malformed ids are NotFound.
func (s *TrackingService) ByIdentifier(ctx context.Context, id models.OrderID) (models.Tracking, error) {
	key := trackOrderKey + string(id)
	return s.cached(ctx, key, func(ctx context.Context) (*models.Order, error) {
		return s.orders.FindByID(ctx, id)
	})
}

// ByPhone resolves the most recently created order for phone.
func (s *TrackingService) ByPhone(ctx context.Context, phone string) (models.Tracking, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return models.Tracking{}, apperr.NotFoundf("No orders found for this phone number")
	}
	key := trackPhoneKey + phone
	return s.cached(ctx, key, func(ctx context.Context) (*models.Order, error) {
		o, err := s.orders.LatestByPhone(ctx, phone)
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, apperr.NotFoundf("No orders found for this phone number")
		}
		return o, err
	})
}

func (s *TrackingService) cached(ctx context.Context, key string, load func(context.Context) (*models.Order, error)) (models.Tracking, error) {
	var t models.Tracking
	if s.cache != nil && s.cache.Get(ctx, key, &t) {
		return t, nil
	}

	gen := s.generation.Load()

	sctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	o, err := load(sctx)
	if err != nil {
		return models.Tracking{}, err
	}

	// A shop that has since disappeared still leaves its orders trackable.
	shopName := ""
	if shop, err := s.shops.FindByID(sctx, o.ShopID); err == nil {
		shopName = shop.ShopName
	} else if apperr.KindOf(err) != apperr.NotFound {
		return models.Tracking{}, err
	}

	t = o.Track(shopName)
	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, t, s.ttl); err != nil {
			logger.WithCtx(ctx).Warn("tracking cache write failed", "key", key, "error", err)
		} else if s.generation.Load() != gen {
			// An order changed while we were loading; t may predate it.
			if err := s.cache.Del(ctx, key); err != nil {
				logger.WithCtx(ctx).Warn("tracking cache drop failed", "key", key, "error", err)
			}
		}
	}
	return t, nil
}

// Invalidate drops the cached projections that o may appear under.
func (s *TrackingService) Invalidate(ctx context.Context, o *models.Order) error {
	if s.cache == nil || o == nil {
		return nil
	}
	s.generation.Add(1)
	return s.cache.Del(ctx, trackOrderKey+string(o.ID), trackPhoneKey+o.CustomerPhone)
}
