package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/pkg/response"
)

type ShopController struct {
	shops *services.ShopService
}

func NewShopController(shops *services.ShopService) *ShopController {
	return &ShopController{shops: shops}
}

// Index handles GET /api/shops?pincode=.
func (c *ShopController) Index(w http.ResponseWriter, r *http.Request) {
	shops, err := c.shops.GetShops(r.Context(), r.URL.Query().Get("pincode"))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, shops)
}

// Show handles GET /api/shops/{id}.
func (c *ShopController) Show(w http.ResponseWriter, r *http.Request) {
	shop, err := c.shops.GetShopByID(r.Context(), models.ShopID(chi.URLParam(r, "id")))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, shop)
}
