// Package kernel assembles the HTTP handler: global middleware, operational
// endpoints and the API routes.
package kernel

import (
	"net/http"
	"time"

	"github.com/quickkiraana/kiraana/app/controllers"
	"github.com/quickkiraana/kiraana/app/routes"
	"github.com/quickkiraana/kiraana/app/schema"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/config"
	"github.com/quickkiraana/kiraana/pkg/graphql"
	"github.com/quickkiraana/kiraana/pkg/metrics"
	"github.com/quickkiraana/kiraana/pkg/middleware"
	"github.com/quickkiraana/kiraana/pkg/reqid"
	"github.com/quickkiraana/kiraana/pkg/response"
	"github.com/quickkiraana/kiraana/pkg/router"
	"github.com/quickkiraana/kiraana/pkg/ws"
)

// Services is what the kernel dispatches to.
type Services struct {
	Auth     *services.AuthService
	Orders   *services.OrderService
	Tracking *services.TrackingService
	Shops    *services.ShopService
	Uploads  *services.UploadService
	Hub      *ws.Hub

	// Checks are probed by /healthz.
	Checks map[string]controllers.Check
	// Storage, when set, serves the local upload disk under /storage.
	Storage http.Handler
}

// Options tunes the middleware chain. Zero values fall back to config.
type Options struct {
	RateLimit      int
	RateWindow     time.Duration
	CORSOrigins    []string
	MaxUploadBytes int64
}

func (o Options) withDefaults() Options {
	if o.RateLimit <= 0 {
		o.RateLimit = config.RateLimit()
	}
	if o.RateWindow <= 0 {
		o.RateWindow = time.Minute
	}
	if len(o.CORSOrigins) == 0 {
		o.CORSOrigins = config.CORSOrigins()
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = config.MaxUploadBytes()
	}
	return o
}

type HTTPKernel struct {
	router  *router.Router
	limiter *middleware.Limiter
}

// NewHTTPKernel builds the router. Global middleware, outermost first:
//  1. Prometheus metrics, for total latency
//  2. Recovery
//  3. Request ID, before anything logs
//  4. Logger
//  5. CORS
//  6. Rate limiter
func NewHTTPKernel(s Services, opts Options) (*HTTPKernel, error) {
	opts = opts.withDefaults()

	gql, err := schema.New(s.Tracking, s.Shops)
	if err != nil {
		return nil, err
	}

	limiter := middleware.NewLimiter(opts.RateLimit, opts.RateWindow)

	r := router.New()
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins...)))
	r.Use(limiter.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	health := controllers.NewHealthController(s.Checks, 2*time.Second)
	r.Get("/healthz", "healthz", health.Health)
	r.Get("/metrics", "metrics", metrics.Handler().ServeHTTP)
	if s.Storage != nil {
		r.Mount("/storage", s.Storage)
	}

	routes.RegisterAPI(r, routes.API{
		Auth:      controllers.NewAuthController(s.Auth),
		Orders:    controllers.NewOrderController(s.Orders, s.Tracking),
		Shops:     controllers.NewShopController(s.Shops),
		Uploads:   controllers.NewUploadController(s.Uploads, opts.MaxUploadBytes),
		Feed:      controllers.NewFeedController(s.Hub),
		GraphQL:   graphql.Handler(gql),
		Guard:     middleware.Guard(s.Auth),
		FeedGuard: middleware.GuardQuery(s.Auth, "token"),
	})

	return &HTTPKernel{router: r, limiter: limiter}, nil
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

// Routes lists the registered routes for route:list.
func (k *HTTPKernel) Routes() []router.RouteInfo { return k.router.Routes() }

// Close stops background work owned by the kernel.
func (k *HTTPKernel) Close() { k.limiter.Stop() }
