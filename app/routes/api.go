package routes

import (
	"net/http"

	"github.com/quickkiraana/kiraana/app/controllers"
	"github.com/quickkiraana/kiraana/pkg/router"
)

// API is everything the public routes dispatch to.
type API struct {
	Auth    *controllers.AuthController
	Orders  *controllers.OrderController
	Shops   *controllers.ShopController
	Uploads *controllers.UploadController
	Feed    *controllers.FeedController
	GraphQL http.HandlerFunc

	// Guard authenticates bearer-token routes; FeedGuard reads the token
	// from the query string, since browsers cannot set headers on the
	// WebSocket handshake or an EventSource.
	Guard     router.Middleware
	FeedGuard router.Middleware
}

func RegisterAPI(r *router.Router, c API) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", "auth.register", c.Auth.Register)
	auth.Post("/login", "auth.login", c.Auth.Login)
	auth.Get("/me", "auth.me", c.Auth.Me, c.Guard)
	auth.Put("/me", "auth.me.update", c.Auth.UpdateProfile, c.Guard)

	orders := api.Group("/orders")
	orders.Post("", "orders.store", c.Orders.Create)
	orders.Get("/track/{id}", "orders.track", c.Orders.Track)
	orders.Get("/track/phone/{phone}", "orders.track.phone", c.Orders.TrackByPhone)
	orders.Get("/feed", "orders.feed", c.Feed.Feed, c.FeedGuard)
	orders.Get("/feed/stream", "orders.feed.stream", c.Feed.Stream, c.FeedGuard)

	owned := orders.Group("", c.Guard)
	owned.Get("/my-orders", "orders.mine", c.Orders.MyOrders)
	owned.Put("/{id}", "orders.update", c.Orders.UpdateStatus)
	owned.Post("/{id}/advance", "orders.advance", c.Orders.Advance)
	owned.Post("/{id}/cancel", "orders.cancel", c.Orders.Cancel)

	shops := api.Group("/shops")
	shops.Get("", "shops.index", c.Shops.Index)
	shops.Get("/{id}", "shops.show", c.Shops.Show)

	api.Post("/upload", "upload.store", c.Uploads.Upload)
	api.Post("/graphql", "graphql", c.GraphQL)
}
