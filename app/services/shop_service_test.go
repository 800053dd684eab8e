package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/pkg/apperr"
)

func TestShopDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := services.NewShopService(f.shops, time.Second)

	all, err := svc.GetShops(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	near, err := svc.GetShops(ctx, " 474002 ")
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "Meena Kirana", near[0].ShopName)

	none, err := svc.GetShops(ctx, "47400")
	require.NoError(t, err)
	assert.Empty(t, none, "pincode match is exact")

	got, err := svc.GetShopByID(ctx, f.s1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Stores", got.ShopName)

	_, err = svc.GetShopByID(ctx, models.NewShopID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.GetShopByID(ctx, "bogus")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
