package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/repositories"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/cache"
	"github.com/quickkiraana/kiraana/pkg/event"
	"github.com/quickkiraana/kiraana/pkg/logger"
)

type fixture struct {
	orders   *repositories.MemoryOrderRepository
	shops    *repositories.MemoryShopRepository
	cache    *cache.Memory
	bus      *event.Bus
	svc      *services.OrderService
	tracking *services.TrackingService
	s1, s2   *models.Shop
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger.Discard()

	f := &fixture{
		orders: repositories.NewMemoryOrderRepository(),
		shops:  repositories.NewMemoryShopRepository(),
		cache:  cache.NewMemory(),
		bus:    event.NewBus(),
		clock:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.tracking = services.NewTrackingService(f.orders, f.shops, f.cache, time.Minute, time.Second)
	f.svc = services.NewOrderService(f.orders, f.shops, f.bus, time.Second).
		WithTracking(f.tracking).
		WithClock(func() time.Time {
			f.clock = f.clock.Add(time.Minute)
			return f.clock
		})
	services.RegisterListeners(f.bus, nil)

	f.s1 = f.addShop(t, "ravi@example.com", "Ravi Stores", "474001")
	f.s2 = f.addShop(t, "meena@example.com", "Meena Kirana", "474002")
	return f
}

func (f *fixture) addShop(t *testing.T, email, name, pincode string) *models.Shop {
	t.Helper()
	s := &models.Shop{
		ID:        models.NewShopID(),
		Name:      "Owner",
		Email:     email,
		Phone:     "9000000000",
		ShopName:  name,
		Pincode:   pincode,
		CreatedAt: f.clock,
		UpdatedAt: f.clock,
	}
	require.NoError(t, s.SetPassword("secret1"))
	require.NoError(t, f.shops.Create(context.Background(), s))
	return s
}

func (f *fixture) place(t *testing.T, shop *models.Shop, phone, orderType string) *models.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), services.CreateOrderInput{
		ShopID:           shop.ID.String(),
		CustomerName:     "Priya",
		CustomerPhone:    phone,
		ItemsDescription: "2kg rice, 1L oil",
		OrderType:        orderType,
	})
	require.NoError(t, err)
	f.bus.Wait()
	return o
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t, f.s1, "9876543210", "pickup")
	assert.True(t, o.ID.Valid())
	assert.Equal(t, models.StatusReceived, o.Status)
	assert.Equal(t, f.s1.ID, o.ShopID)
	assert.Equal(t, models.OrderTypePickup, o.OrderType)
	assert.False(t, o.CreatedAt.IsZero())
	assert.Equal(t, 1, f.orders.Count())

	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.CustomerPhone, stored.CustomerPhone)
}

func TestCreateOrderRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := services.CreateOrderInput{
		ShopID:           f.s1.ID.String(),
		CustomerName:     "Priya",
		CustomerPhone:    "9876543210",
		ItemsDescription: "rice",
		OrderType:        "delivery",
	}

	cases := []struct {
		name   string
		modify func(*services.CreateOrderInput)
		kind   apperr.Kind
	}{
		{"unknown shop", func(in *services.CreateOrderInput) { in.ShopID = models.NewShopID().String() }, apperr.NotFound},
		{"malformed shop", func(in *services.CreateOrderInput) { in.ShopID = "nope" }, apperr.NotFound},
		{"missing name", func(in *services.CreateOrderInput) { in.CustomerName = "  " }, apperr.Validation},
		{"missing phone", func(in *services.CreateOrderInput) { in.CustomerPhone = "" }, apperr.Validation},
		{"no items", func(in *services.CreateOrderInput) { in.ItemsDescription = "" }, apperr.Validation},
		{"bad type", func(in *services.CreateOrderInput) { in.OrderType = "drone" }, apperr.Validation},
		{"bad image", func(in *services.CreateOrderInput) { in.ImageOfList = "not a url" }, apperr.Validation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.modify(&in)
			_, err := f.svc.Create(ctx, in)
			assert.Equal(t, tc.kind, apperr.KindOf(err), "err: %v", err)
		})
	}
	assert.Equal(t, 0, f.orders.Count())

	photoOnly := valid
	photoOnly.ItemsDescription = ""
	photoOnly.ImageOfList = "https://cdn.example.com/uploads/list.jpg"
	o, err := f.svc.Create(ctx, photoOnly)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/list.jpg", o.DisplayItems())
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t, f.s1, "9876543210", "pickup")

	_, err := f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Ready for Pickup")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err), "cannot skip Preparing")

	got, err := f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "preparing")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, got.Status)

	_, err = f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Out for Delivery")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err), "pickup orders are never out for delivery")

	got, err = f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Ready For Pickup")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyForPickup, got.Status)

	got, err = f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Completed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	_, err = f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Cancelled")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err), "completed is terminal")

	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestUpdateStatusGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, f.s1, "9876543210", "delivery")

	_, err := f.svc.UpdateStatus(ctx, models.NewOrderID(), f.s1.ID, "Preparing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.UpdateStatus(ctx, o.ID, f.s2.ID, "Preparing")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, o.ID, f.s2.ID, "Shipped")
	assert.ErrorIs(t, err, apperr.ErrForbidden, "ownership is checked before the status value")

	_, err = f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Shipped")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, stored.Status)
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, f.s1, "9876543210", "pickup")

	got, err := f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Recieved")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, got.Status)
	assert.True(t, o.UpdatedAt.Equal(got.UpdatedAt))
}

func TestAdvanceAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.place(t, f.s1, "9000000001", "delivery")
	var seen []models.Status
	for {
		o, err := f.svc.Advance(ctx, d.ID, f.s1.ID)
		if err != nil {
			assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
			break
		}
		seen = append(seen, o.Status)
	}
	assert.Equal(t, []models.Status{
		models.StatusPreparing,
		models.StatusOutForDelivery,
		models.StatusCompleted,
	}, seen)

	p := f.place(t, f.s1, "9000000002", "pickup")
	_, err := f.svc.Advance(ctx, p.ID, f.s2.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.svc.Cancel(ctx, p.ID, f.s1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	_, err = f.svc.Advance(ctx, p.ID, f.s1.ID)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	again, err := f.svc.Cancel(ctx, p.ID, f.s1.ID)
	require.NoError(t, err, "cancelling a cancelled order is a no-op")
	assert.Equal(t, models.StatusCancelled, again.Status)
}

func TestListForShopNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.place(t, f.s1, "9000000001", "pickup")
	second := f.place(t, f.s1, "9000000002", "delivery")
	f.place(t, f.s2, "9000000003", "pickup")

	list, err := f.svc.ListForShop(ctx, f.s1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	empty, err := f.svc.ListForShop(ctx, models.NewShopID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

type recordingFeed struct {
	events chan services.OrderEvent
}

func (r *recordingFeed) Publish(shopID models.ShopID, v interface{}) {
	if ev, ok := v.(services.OrderEvent); ok {
		r.events <- ev
	}
}

func TestEventsReachFeed(t *testing.T) {
	f := newFixture(t)
	feed := &recordingFeed{events: make(chan services.OrderEvent, 4)}
	services.RegisterListeners(f.bus, feed)

	o := f.place(t, f.s1, "9000000001", "pickup")
	_, err := f.svc.Advance(context.Background(), o.ID, f.s1.ID)
	require.NoError(t, err)
	f.bus.Wait()

	created := <-feed.events
	changed := <-feed.events
	assert.Equal(t, services.EventOrderCreated, created.Type)
	assert.Equal(t, services.EventOrderStatusChanged, changed.Type)
	assert.Equal(t, models.StatusReceived, changed.From)
	assert.Equal(t, models.StatusPreparing, changed.Order.Status)
	assert.Equal(t, f.s1.ID, changed.Order.ShopID)
}
