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
	"github.com/quickkiraana/kiraana/pkg/auth"
	"github.com/quickkiraana/kiraana/pkg/logger"
)

func newAuth(t *testing.T) (*services.AuthService, *repositories.MemoryShopRepository, *auth.Issuer) {
	t.Helper()
	logger.Discard()
	shops := repositories.NewMemoryShopRepository()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return services.NewAuthService(shops, issuer, time.Second), shops, issuer
}

func registration() services.RegisterInput {
	return services.RegisterInput{
		Name:     "Ravi",
		Email:    "Ravi@Example.com ",
		Password: "secret1",
		Phone:    "9000000000",
		ShopName: "Ravi Stores",
		Pincode:  "474001",
	}
}

func TestRegister(t *testing.T) {
	svc, shops, _ := newAuth(t)
	ctx := context.Background()

	shop, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	assert.True(t, shop.ID.Valid())
	assert.Equal(t, "ravi@example.com", shop.Email)
	assert.NotEqual(t, "secret1", shop.PasswordHash)
	assert.True(t, shop.CheckPassword("secret1"))

	stored, err := shops.FindByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, stored.ID)

	_, err = svc.Register(ctx, registration())
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, "Shopkeeper already exists", apperr.Message(err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuth(t)

	cases := map[string]func(*services.RegisterInput){
		"bad email":      func(in *services.RegisterInput) { in.Email = "ravi" },
		"short password": func(in *services.RegisterInput) { in.Password = "12345" },
		"short pincode":  func(in *services.RegisterInput) { in.Pincode = "47400" },
		"alpha pincode":  func(in *services.RegisterInput) { in.Pincode = "47400a" },
		"no shop name":   func(in *services.RegisterInput) { in.ShopName = "" },
		"no phone":       func(in *services.RegisterInput) { in.Phone = "" },
	}
	for name, modify := range cases {
		t.Run(name, func(t *testing.T) {
			in := registration()
			modify(&in)
			_, err := svc.Register(context.Background(), in)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err), "err: %v", err)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, issuer := newAuth(t)
	ctx := context.Background()
	shop, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	token, err := svc.Login(ctx, services.LoginInput{Email: "RAVI@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, shop.ID.String(), claims.ShopID)

	_, err = svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
	assert.Equal(t, "Invalid Credentials", apperr.Message(err))

	_, err = svc.Login(ctx, services.LoginInput{Email: "ravi@example.com", Password: "wrong-one"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Equal(t, "Incorrect Password", apperr.Message(err))
}

func TestLoginWithHashShapedPassword(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()

	in := registration()
	in.Password = "$2a$10$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyz01234"
	require.True(t, auth.IsHash(in.Password))
	shop, err := svc.Register(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, in.Password, shop.PasswordHash)

	_, err = svc.Login(ctx, services.LoginInput{Email: in.Email, Password: in.Password})
	assert.NoError(t, err)
}

func TestResolve(t *testing.T) {
	svc, _, issuer := newAuth(t)
	ctx := context.Background()
	shop, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	token, err := issuer.Issue(shop.ID.String())
	require.NoError(t, err)
	id, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ShopID: shop.ID, Name: "Ravi", ShopName: "Ravi Stores", Email: "ravi@example.com"}, id)

	_, err = svc.Resolve(ctx, "garbage")
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))

	ghost, err := issuer.Issue(models.NewShopID().String())
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, ghost)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err), "token for a deleted shop")

	expired, err := auth.NewIssuer("test-secret", time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(shop.ID.String())
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, expired)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
	assert.Equal(t, "Token has expired", apperr.Message(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	shop, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	hash := shop.PasswordHash

	updated, err := svc.UpdateProfile(ctx, shop.ID, services.ProfileInput{ShopName: "Ravi Super Stores"})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Super Stores", updated.ShopName)
	assert.Equal(t, "474001", updated.Pincode)
	assert.Equal(t, hash, updated.PasswordHash, "password untouched without a new one")

	updated, err = svc.UpdateProfile(ctx, shop.ID, services.ProfileInput{Password: "newsecret"})
	require.NoError(t, err)
	assert.NotEqual(t, hash, updated.PasswordHash)
	assert.True(t, updated.CheckPassword("newsecret"))

	me, err := svc.Me(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Super Stores", me.ShopName)

	_, err = svc.UpdateProfile(ctx, shop.ID, services.ProfileInput{Pincode: "12"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.Register(ctx, services.RegisterInput{
		Name: "Meena", Email: "meena@example.com", Password: "secret1",
		Phone: "9000000001", ShopName: "Meena Kirana", Pincode: "474002",
	})
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, shop.ID, services.ProfileInput{Email: "meena@example.com"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}
