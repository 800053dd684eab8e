package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/pkg/bind"
	"github.com/quickkiraana/kiraana/pkg/response"
)

type OrderController struct {
	orders   *services.OrderService
	tracking *services.TrackingService
}

func NewOrderController(orders *services.OrderService, tracking *services.TrackingService) *OrderController {
	return &OrderController{orders: orders, tracking: tracking}
}

// Create handles POST /api/orders. No authentication: customers place
// orders directly.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateOrderInput
	if err := bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	order, err := c.orders.Create(r.Context(), in)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.Created(w, order)
}

// MyOrders handles GET /api/orders/my-orders.
func (c *OrderController) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.ListForShop(r.Context(), identity(r).ShopID)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, orders)
}

type statusBody struct {
	Status string `json:"status" validate:"required" msg:"Status is required"`
}

// UpdateStatus handles PUT /api/orders/{id}.
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if err := bind.JSON(w, r, &body); err != nil {
		response.Fail(w, r, err)
		return
	}

	order, err := c.orders.UpdateStatus(r.Context(), orderID(r), identity(r).ShopID, body.Status)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, order)
}

// Advance handles POST /api/orders/{id}/advance.
func (c *OrderController) Advance(w http.ResponseWriter, r *http.Request) {
	c.step(w, r, c.orders.Advance)
}

// Cancel handles POST /api/orders/{id}/cancel.
func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.step(w, r, c.orders.Cancel)
}

func (c *OrderController) step(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, models.OrderID, models.ShopID) (*models.Order, error),
) {
	order, err := fn(r.Context(), orderID(r), identity(r).ShopID)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, order)
}

// Track handles GET /api/orders/track/{id}.
func (c *OrderController) Track(w http.ResponseWriter, r *http.Request) {
	t, err := c.tracking.ByIdentifier(r.Context(), orderID(r))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, t)
}

// TrackByPhone handles GET /api/orders/track/phone/{phone}.
func (c *OrderController) TrackByPhone(w http.ResponseWriter, r *http.Request) {
	t, err := c.tracking.ByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, t)
}

func orderID(r *http.Request) models.OrderID {
	return models.OrderID(chi.URLParam(r, "id"))
}
