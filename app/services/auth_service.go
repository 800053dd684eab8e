package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/repositories"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/auth"
	"github.com/quickkiraana/kiraana/pkg/bind"
	"github.com/quickkiraana/kiraana/pkg/logger"
)

// RegisterInput is the shopkeeper sign-up form.
type RegisterInput struct {
	Name      string `json:"name"      validate:"required,max=255" msg:"Name is required"`
	Email     string `json:"email"     validate:"required,email" msg:"Please include a valid email"`
	Password  string `json:"password"  validate:"required,min=6" msg:"Please enter a password with 6 or more characters"`
	Phone     string `json:"phone"     validate:"required,max=32" msg:"Phone number is required"`
	ShopName  string `json:"shopName"  validate:"required,max=255" msg:"Shop name is required"`
	Pincode   string `json:"pincode"   validate:"required,digits=6" msg:"Pincode must be 6 digits"`
	ShopImage string `json:"shopImage" validate:"nullable,url" msg:"shopImage must be a URL"`
}

// LoginInput is the credential pair.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

// ProfileInput updates the authenticated shop. Empty fields are left as is.
type ProfileInput struct {
	Name      string `json:"name"      validate:"max=255"`
	Email     string `json:"email"     validate:"nullable,email" msg:"Please include a valid email"`
	Password  string `json:"password"  validate:"nullable,min=6" msg:"Please enter a password with 6 or more characters"`
	Phone     string `json:"phone"     validate:"max=32"`
	ShopName  string `json:"shopName"  validate:"max=255"`
	Pincode   string `json:"pincode"   validate:"nullable,digits=6" msg:"Pincode must be 6 digits"`
	ShopImage string `json:"shopImage" validate:"nullable,url" msg:"shopImage must be a URL"`
}

// Credential failures. The two are reported differently to clients.
var (
	ErrInvalidCredentials = apperr.E(apperr.Unauthenticated, "Invalid Credentials", nil)
	ErrIncorrectPassword  = apperr.Invalid("Incorrect Password")
)

// AuthService owns shopkeeper accounts and bearer tokens. It is the token
// resolver used by the access guard.
type AuthService struct {
	shops   repositories.ShopRepository
	tokens  *auth.Issuer
	timeout time.Duration
	now     func() time.Time
}

func NewAuthService(shops repositories.ShopRepository, tokens *auth.Issuer, timeout time.Duration) *AuthService {
	return &AuthService{
		shops:   shops,
		tokens:  tokens,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a shop account. A taken email is a Conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Shop, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.Pincode = strings.TrimSpace(in.Pincode)
	if err := bind.Validate(in); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.shops.FindByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflictf("Shopkeeper already exists")
	} else if apperr.KindOf(err) != apperr.NotFound {
		return nil, err
	}

	now := s.now()
	shop := &models.Shop{
		ID:        models.NewShopID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		ShopName:  strings.TrimSpace(in.ShopName),
		Pincode:   in.Pincode,
		ShopImage: strings.TrimSpace(in.ShopImage),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := shop.SetPassword(in.Password); err != nil {
		return nil, apperr.Wrap("hash password", err)
	}
	if err := s.shops.Create(ctx, shop); err != nil {
		return nil, err
	}

	logger.WithCtx(ctx).Info("shopkeeper registered", "shop_id", shop.ID.String())
	return shop, nil
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := bind.Validate(in); err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	shop, err := s.shops.FindByEmail(ctx, in.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !shop.CheckPassword(in.Password) {
		return "", ErrIncorrectPassword
	}

	token, err := s.tokens.Issue(shop.ID.String())
	if err != nil {
		return "", apperr.Wrap("issue token", err)
	}
	return token, nil
}

// Resolve verifies token and loads the shop it names. A token for a shop
// that no longer exists is invalid.
func (s *AuthService) Resolve(ctx context.Context, token string) (models.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		msg := "Token is not valid"
		if errors.Is(err, auth.ErrTokenExpired) {
			msg = "Token has expired"
		}
		return models.Identity{}, apperr.E(apperr.InvalidToken, msg, err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	shop, err := s.shops.FindByID(ctx, models.ShopID(claims.ShopID))
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return models.Identity{}, apperr.E(apperr.InvalidToken, "Token is not valid", err)
		}
		return models.Identity{}, err
	}
	return shop.Identity(), nil
}

// Me returns the full profile of the authenticated shop.
func (s *AuthService) Me(ctx context.Context, id models.ShopID) (*models.Shop, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.shops.FindByID(ctx, id)
}

// UpdateProfile applies the non-empty fields of in. The password is hashed
// only when a new one is given.
func (s *AuthService) UpdateProfile(ctx context.Context, id models.ShopID, in ProfileInput) (*models.Shop, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.Pincode = strings.TrimSpace(in.Pincode)
	if err := bind.Validate(in); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	shop, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&shop.Name, in.Name)
	set(&shop.Email, in.Email)
	set(&shop.Phone, in.Phone)
	set(&shop.ShopName, in.ShopName)
	set(&shop.Pincode, in.Pincode)
	set(&shop.ShopImage, in.ShopImage)
	if in.Password != "" {
		if err := shop.SetPassword(in.Password); err != nil {
			return nil, apperr.Wrap("hash password", err)
		}
	}
	shop.UpdatedAt = s.now()

	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}
