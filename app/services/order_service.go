package services

import (
	"context"
	"strings"
	"time"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/repositories"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/bind"
	"github.com/quickkiraana/kiraana/pkg/event"
	"github.com/quickkiraana/kiraana/pkg/logger"
)

// CreateOrderInput is the customer-facing order submission.
type CreateOrderInput struct {
	ShopID           string `json:"shopkeeperId"     validate:"required" msg:"Shopkeeper is required"`
	CustomerName     string `json:"customerName"     validate:"required,max=255" msg:"Please provide your name"`
	CustomerPhone    string `json:"customerPhone"    validate:"required,max=32" msg:"Please provide a phone number"`
	ItemsDescription string `json:"itemsDescription" validate:"max=5000"`
	ImageOfList      string `json:"imageOfList"      validate:"nullable,url" msg:"imageOfList must be a URL"`
	OrderType        string `json:"orderType"        validate:"required" msg:"orderType must be pickup or delivery"`
	IsUrgent         bool   `json:"isUrgent"`
	PaymentID        string `json:"paymentId"        validate:"max=128"`
}

// OrderService is the order lifecycle engine: it creates orders and moves
// them through the status machine on behalf of the owning shop.
type OrderService struct {
	orders  repositories.OrderRepository
	shops   repositories.ShopRepository
	bus      *event.Bus
	tracking *TrackingService
	timeout  time.Duration
	now      func() time.Time
}

func NewOrderService(orders repositories.OrderRepository, shops repositories.ShopRepository, bus *event.Bus, timeout time.Duration) *OrderService {
	return &OrderService{
		orders:  orders,
		shops:   shops,
		bus:     bus,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithTracking makes every successful write drop the affected tracking
// cache entries before the call returns.
func (s *OrderService) WithTracking(t *TrackingService) *OrderService {
	s.tracking = t
	return s
}

// WithClock replaces the time source. Used by tests.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// Create stores a new order in the initial status. The shop must exist.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.ItemsDescription = strings.TrimSpace(in.ItemsDescription)
	in.ImageOfList = strings.TrimSpace(in.ImageOfList)

	if err := bind.Validate(in); err != nil {
		return nil, err
	}
	if in.ItemsDescription == "" && in.ImageOfList == "" {
		return nil, apperr.Invalid("Please describe the items or attach a photo of the list")
	}
	orderType, err := models.ParseOrderType(in.OrderType)
	if err != nil {
		return nil, apperr.E(apperr.Validation, "orderType must be pickup or delivery", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	shop, err := s.shops.FindByID(ctx, models.ShopID(in.ShopID))
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, apperr.NotFoundf("Shopkeeper not found")
		}
		return nil, err
	}

	now := s.now()
	o := &models.Order{
		ID:               models.NewOrderIDAt(now),
		CustomerName:     in.CustomerName,
		CustomerPhone:    in.CustomerPhone,
		ShopID:           shop.ID,
		ItemsDescription: in.ItemsDescription,
		ImageOfList:      in.ImageOfList,
		OrderType:        orderType,
		Status:           models.InitialStatus,
		IsUrgent:         in.IsUrgent,
		PaymentID:        strings.TrimSpace(in.PaymentID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	s.invalidate(ctx, o)

	logger.WithCtx(ctx).Info("order created",
		"order_id", o.ID.String(),
		"shop_id", o.ShopID.String(),
		"order_type", string(o.OrderType),
	)
	s.fire(OrderEvent{Type: EventOrderCreated, Order: *o})
	return o, nil
}

// UpdateStatus moves an order to newStatus on behalf of requester. Legacy
// status spellings are accepted. Setting the current status again is a
// successful no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id models.OrderID, requester models.ShopID, newStatus string) (*models.Order, error) {
	return s.transition(ctx, id, requester, func(o *models.Order) (models.Status, error) {
		to, err := models.ParseStatus(newStatus)
		if err != nil {
			return "", apperr.E(apperr.Validation, "Invalid status", err)
		}
		return to, nil
	})
}

// Advance moves an order one step forward along its fulfillment path.
func (s *OrderService) Advance(ctx context.Context, id models.OrderID, requester models.ShopID) (*models.Order, error) {
	return s.transition(ctx, id, requester, func(o *models.Order) (models.Status, error) {
		next, ok := o.Status.Next(o.OrderType)
		if !ok {
			return "", apperr.Conflictf("Order is already " + string(o.Status))
		}
		return next, nil
	})
}

// Cancel moves an order to Cancelled.
func (s *OrderService) Cancel(ctx context.Context, id models.OrderID, requester models.ShopID) (*models.Order, error) {
	return s.transition(ctx, id, requester, func(*models.Order) (models.Status, error) {
		return models.StatusCancelled, nil
	})
}

// transition loads the order, checks ownership, resolves the target with
// target and applies it if the status table allows it.
func (s *OrderService) transition(
	ctx context.Context,
	id models.OrderID,
	requester models.ShopID,
	target func(*models.Order) (models.Status, error),
) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.ShopID != requester {
		logger.WithCtx(ctx).Warn("order update by non-owner", "order_id", id.String(), "requester", requester.String())
		return nil, apperr.Forbiddenf("User not authorized")
	}

	to, err := target(o)
	if err != nil {
		return nil, err
	}
	if to == o.Status {
		return o, nil
	}
	if !o.Status.CanTransition(to, o.OrderType) {
		return nil, apperr.Conflictf("Cannot move order from " + string(o.Status) + " to " + string(to))
	}

	from := o.Status
	at := s.now()
	if err := s.orders.UpdateStatus(ctx, o.ID, to, at); err != nil {
		return nil, err
	}
	o.Status = to
	o.UpdatedAt = at
	s.invalidate(ctx, o)

	logger.WithCtx(ctx).Info("order status updated",
		"order_id", o.ID.String(),
		"from", string(from),
		"to", string(to),
	)
	s.fire(OrderEvent{Type: EventOrderStatusChanged, Order: *o, From: from})
	return o, nil
}

// ListForShop returns the shop's orders newest first.
func (s *OrderService) ListForShop(ctx context.Context, shopID models.ShopID) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.orders.ListByShop(ctx, shopID)
}

// invalidate runs before the response so a customer never reads a
// projection older than the write they were told about.
func (s *OrderService) invalidate(ctx context.Context, o *models.Order) {
	if s.tracking == nil {
		return
	}
	if err := s.tracking.Invalidate(context.WithoutCancel(ctx), o); err != nil {
		logger.WithCtx(ctx).Warn("tracking cache invalidation failed", "order_id", o.ID.String(), "error", err)
	}
}

func (s *OrderService) fire(ev OrderEvent) {
	if s.bus != nil {
		s.bus.FireAsync(ev.Type, ev)
	}
}
