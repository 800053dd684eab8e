package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickkiraana/kiraana/pkg/logger"
)

func TestOpenStoreMemory(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	store, err := OpenStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.Nil(t, store.SQL)
	assert.NotNil(t, store.Orders)
	assert.NotNil(t, store.Shops)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestBootMemory(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "none")
	t.Setenv("STORAGE_DISK", "local")
	t.Setenv("STORAGE_LOCAL_ROOT", t.TempDir())
	t.Cleanup(logger.Discard)

	app, err := Boot(context.Background())
	require.NoError(t, err)
	defer app.Close()

	assert.True(t, app.StoreUp)
	assert.Contains(t, app.Services.Checks, "store")
	assert.NotNil(t, app.Services.Storage)
}

func TestRouteTable(t *testing.T) {
	infos, err := RouteTable()
	require.NoError(t, err)

	names := make(map[string]string, len(infos))
	for _, ri := range infos {
		names[ri.Name] = ri.Method + " " + ri.Path
	}
	assert.Equal(t, "POST /api/orders", names["orders.store"])
	assert.Equal(t, "GET /api/orders/track/{id}", names["orders.track"])
	assert.Equal(t, "PUT /api/orders/{id}", names["orders.update"])
	assert.Equal(t, "GET /healthz", names["healthz"])
}

func TestAppCloseRunsInReverse(t *testing.T) {
	var order []int
	app := &App{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}
	app.Close()
	app.Close()
	assert.Equal(t, []int{2, 1}, order)
}
