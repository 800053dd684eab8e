package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"github.com/quickkiraana/kiraana/app/controllers"
	"github.com/quickkiraana/kiraana/app/repositories"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/config"
	"github.com/quickkiraana/kiraana/internal/kernel"
	"github.com/quickkiraana/kiraana/pkg/auth"
	"github.com/quickkiraana/kiraana/pkg/cache"
	"github.com/quickkiraana/kiraana/pkg/database"
	"github.com/quickkiraana/kiraana/pkg/event"
	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/migration"
	"github.com/quickkiraana/kiraana/pkg/router"
	"github.com/quickkiraana/kiraana/pkg/storage"
	"github.com/quickkiraana/kiraana/pkg/workerpool"
	"github.com/quickkiraana/kiraana/pkg/ws"

	// Registers the schema migrations run at boot for the sql driver.
	_ "github.com/quickkiraana/kiraana/database/migrations"
)

// App is a fully wired application.
type App struct {
	Stores   repositories.Stores
	Bus      *event.Bus
	Hub      *ws.Hub
	Services kernel.Services

	// StoreUp reports whether the store answered its first ping.
	StoreUp bool

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Store is an opened persistence backend.
type Store struct {
	repositories.Stores
	// SQL is set for the sql driver; migrations and seeders use it.
	SQL   *gorm.DB
	Ping  controllers.Check
	Close func()
}

// OpenStore opens the backend named by STORE_DRIVER.
func OpenStore(ctx context.Context) (*Store, error) {
	switch driver := config.StoreDriver(); driver {
	case "memory":
		return &Store{
			Stores: repositories.NewMemoryStores(),
			Ping:   func(context.Context) error { return nil },
			Close:  func() {},
		}, nil

	case "mongo":
		client, err := database.ConnectMongo(ctx, config.MongoURI())
		if err != nil {
			return nil, err
		}
		db := client.Database(config.MongoDatabase())
		orders := repositories.NewMongoOrderRepository(db)
		shops := repositories.NewMongoShopRepository(db)
		if err := orders.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		if err := shops.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &Store{
			Stores: repositories.Stores{Orders: orders, Shops: shops},
			Ping:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
			Close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		db, err := database.OpenSQL(config.DatabaseDriver(), config.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		return &Store{
			Stores: repositories.Stores{
				Orders: repositories.NewSQLOrderRepository(db),
				Shops:  repositories.NewSQLShopRepository(db),
			},
			SQL: db,
			Ping: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			Close: func() { _ = database.CloseSQL(db) },
		}, nil
	}
}

// Boot loads configuration and wires stores, cache, blob storage, event
// listeners and services.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	app := &App{Hub: ws.NewHub()}
	app.setupLogging(ctx)
	ws.SetCheckOrigin(ws.AllowOrigins(config.CORSOrigins()...))

	pool := workerpool.New(config.EventWorkers())
	app.Bus = event.NewBus(event.WithPool(pool))
	app.closers = append(app.closers, pool.Shutdown)

	store, err := OpenStore(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.closers = append(app.closers, store.Close)
	app.Stores = store.Stores

	if store.SQL != nil {
		if err := migration.New(store.SQL, io.Discard).Run(); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.StoreTimeout())
	app.StoreUp = store.Ping(pingCtx) == nil
	cancel()

	checks := map[string]controllers.Check{"store": store.Ping}
	trackingCache := app.openCache(ctx, checks)

	disk, err := storage.Open(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	app.Services = Wire(store.Stores, app.Bus, app.Hub, trackingCache, disk)
	app.Services.Checks = checks

	logger.Info("application booted",
		"store", config.StoreDriver(),
		"storage", config.StorageDefault(),
		"store_up", app.StoreUp,
	)
	return app, nil
}

// Wire builds the services over stores and registers the event listeners
// that keep metrics and the live feed current. A nil cache disables
// tracking caching.
func Wire(stores repositories.Stores, bus *event.Bus, hub *ws.Hub, trackingCache cache.Cache, disk storage.Disk) kernel.Services {
	timeout := config.StoreTimeout()
	tracking := services.NewTrackingService(stores.Orders, stores.Shops, trackingCache, config.TrackingCacheTTL(), timeout)
	services.RegisterListeners(bus, hub)

	s := kernel.Services{
		Auth:     services.NewAuthService(stores.Shops, auth.NewIssuer(config.JWTSecret(), config.TokenTTL()), timeout),
		Orders:   services.NewOrderService(stores.Orders, stores.Shops, bus, timeout).WithTracking(tracking),
		Tracking: tracking,
		Shops:    services.NewShopService(stores.Shops, timeout),
		Uploads:  services.NewUploadService(storage.DiskStore{Disk: disk}),
		Hub:      hub,
	}
	if local, ok := disk.(*storage.LocalDisk); ok {
		s.Storage = local.Handler("/storage")
	}
	return s
}

// RouteTable lists the HTTP routes without opening any backend.
func RouteTable() ([]router.RouteInfo, error) {
	s := Wire(repositories.NewMemoryStores(), event.NewBus(), ws.NewHub(), nil,
		storage.NewLocalDisk(config.StorageLocalRoot(), config.StorageURL()))
	k, err := kernel.NewHTTPKernel(s, kernel.Options{})
	if err != nil {
		return nil, err
	}
	defer k.Close()
	return k.Routes(), nil
}

// setupLogging adds the MongoDB log sink when LOG_MONGO_URI is set.
func (a *App) setupLogging(ctx context.Context) {
	uri := config.LogMongoURI()
	if uri == "" {
		logger.Setup()
		return
	}
	h, err := logger.NewMongoHandler(ctx, uri, config.MongoDatabase(), "logs")
	if err != nil {
		logger.Setup()
		logger.Warn("mongo log sink unavailable, logging to stdout only", "error", err)
		return
	}
	logger.Setup(slog.Handler(h))
	a.closers = append(a.closers, h.Close)
}

// openCache connects to Redis, falling back to an in-process cache when
// Redis is unreachable or REDIS_ADDR is "none".
func (a *App) openCache(ctx context.Context, checks map[string]controllers.Check) cache.Cache {
	addr := config.RedisAddr()
	if addr == "" || addr == "none" {
		return cache.NewMemory()
	}
	rdb, err := cache.Connect(ctx, addr, config.RedisPassword())
	if err != nil {
		logger.Warn("redis unavailable, using in-memory tracking cache", "addr", addr, "error", err)
		return cache.NewMemory()
	}
	checks["cache"] = rdb.Ping
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	return rdb
}
