package controllers

import (
	"net/http"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/bind"
	"github.com/quickkiraana/kiraana/pkg/middleware"
	"github.com/quickkiraana/kiraana/pkg/response"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register handles POST /api/auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	if _, err := c.service.Register(r.Context(), in); err != nil {
		// The public API reports a taken email as a bad request.
		if apperr.KindOf(err) == apperr.Conflict {
			response.Message(w, http.StatusBadRequest, apperr.Message(err))
			return
		}
		response.Fail(w, r, err)
		return
	}

	response.Message(w, http.StatusCreated, "Shopkeeper Registered Successfully")
}

// Login handles POST /api/auth/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	token, err := c.service.Login(r.Context(), in)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, map[string]string{"token": token})
}

// Me handles GET /api/auth/me.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	shop, err := c.service.Me(r.Context(), identity(r).ShopID)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, shop)
}

// UpdateProfile handles PUT /api/auth/me.
func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if err := bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	shop, err := c.service.UpdateProfile(r.Context(), identity(r).ShopID, in)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict {
			response.Message(w, http.StatusBadRequest, apperr.Message(err))
			return
		}
		response.Fail(w, r, err)
		return
	}
	response.OK(w, shop)
}

// identity is the shopkeeper attached by the access guard. Routes using it
// are always mounted behind the guard.
func identity(r *http.Request) models.Identity {
	id, _ := middleware.IdentityFromCtx(r.Context())
	return id
}
