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
)

func TestTrackByIdentifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, f.s1, "9876543210", "pickup")

	got, err := f.tracking.ByIdentifier(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Tracking{ID: o.ID, Status: models.StatusReceived, ShopName: "Ravi Stores"}, got)

	_, err = f.tracking.ByIdentifier(ctx, models.NewOrderID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.tracking.ByIdentifier(ctx, "not-an-order-id")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTrackByPhoneReturnsLatestOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.place(t, f.s1, "9876543210", "pickup")
	latest := f.place(t, f.s2, "9876543210", "delivery")

	got, err := f.tracking.ByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)
	assert.Equal(t, "Meena Kirana", got.ShopName)

	_, err = f.tracking.ByPhone(ctx, "1111111111")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "No orders found for this phone number", apperr.Message(err))
}

func TestTrackingCacheIsInvalidatedOnStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, f.s1, "9876543210", "pickup")

	_, err := f.tracking.ByIdentifier(ctx, o.ID)
	require.NoError(t, err)
	_, err = f.tracking.ByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, 2, f.cache.Len())

	var cached models.Tracking
	require.True(t, f.cache.Get(ctx, "track:order:"+o.ID.String(), &cached))
	assert.Equal(t, models.StatusReceived, cached.Status)

	_, err = f.svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Preparing")
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.Len())

	got, err := f.tracking.ByIdentifier(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, got.Status)

	got, err = f.tracking.ByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, got.Status)
}

func TestTrackingCacheIsInvalidatedByNewOrderForPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.place(t, f.s1, "9876543210", "pickup")
	got, err := f.tracking.ByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	second := f.place(t, f.s2, "9876543210", "pickup")
	got, err = f.tracking.ByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestTrackingWithoutCache(t *testing.T) {
	f := newFixture(t)
	o := f.place(t, f.s1, "9876543210", "pickup")

	tracker := services.NewTrackingService(f.orders, f.shops, nil, time.Minute, time.Second)
	got, err := tracker.ByIdentifier(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.NoError(t, tracker.Invalidate(context.Background(), o))
	assert.Equal(t, 0, f.cache.Len())
}

func TestTrackingSeesEveryUpdateImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		o, err := f.svc.Create(ctx, services.CreateOrderInput{
			ShopID:           f.s1.ID.String(),
			CustomerName:     "Priya",
			CustomerPhone:    "9876543210",
			ItemsDescription: "rice",
			OrderType:        "delivery",
		})
		require.NoError(t, err)

		got, err := f.tracking.ByPhone(ctx, "9876543210")
		require.NoError(t, err)
		require.Equal(t, o.ID, got.ID)

		want := models.StatusReceived
		for _, step := range []func(context.Context, models.OrderID, models.ShopID) (*models.Order, error){
			f.svc.Advance, f.svc.Advance, f.svc.Cancel,
		} {
			_, err := f.tracking.ByIdentifier(ctx, o.ID)
			require.NoError(t, err)

			updated, err := step(ctx, o.ID, f.s1.ID)
			require.NoError(t, err)
			want = updated.Status

			got, err := f.tracking.ByIdentifier(ctx, o.ID)
			require.NoError(t, err)
			require.Equal(t, want, got.Status)

			got, err = f.tracking.ByPhone(ctx, "9876543210")
			require.NoError(t, err)
			require.Equal(t, want, got.Status)
		}
		assert.Equal(t, models.StatusCancelled, want)
	}
	f.bus.Wait()
}

// slowOrders lets a test change an order between a tracking load and the
// cache write that follows it.
type slowOrders struct {
	repositories.OrderRepository
	afterLoad func()
}

func (s *slowOrders) FindByID(ctx context.Context, id models.OrderID) (*models.Order, error) {
	o, err := s.OrderRepository.FindByID(ctx, id)
	if s.afterLoad != nil {
		hook := s.afterLoad
		s.afterLoad = nil
		hook()
	}
	return o, err
}

func TestTrackingDropsProjectionLoadedBeforeUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, f.s1, "9876543210", "pickup")

	orders := &slowOrders{OrderRepository: f.orders}
	tracker := services.NewTrackingService(orders, f.shops, f.cache, time.Minute, time.Second)
	svc := services.NewOrderService(f.orders, f.shops, f.bus, time.Second).WithTracking(tracker)

	orders.afterLoad = func() {
		_, err := svc.UpdateStatus(ctx, o.ID, f.s1.ID, "Preparing")
		require.NoError(t, err)
	}

	// This read loaded the order before the update landed.
	stale, err := tracker.ByIdentifier(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, stale.Status)
	assert.Equal(t, 0, f.cache.Len())

	got, err := tracker.ByIdentifier(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, got.Status)
	f.bus.Wait()
}
