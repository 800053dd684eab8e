package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickkiraana/kiraana/app/models"
)

func TestSetPasswordAlwaysHashes(t *testing.T) {
	var s models.Shop
	require.NoError(t, s.SetPassword("secret1"))
	first := s.PasswordHash
	assert.NotEqual(t, "secret1", first)
	assert.True(t, s.CheckPassword("secret1"))
	assert.False(t, s.CheckPassword("secret2"))

	// A password that happens to look like a bcrypt hash is still a password.
	hashLike := "$2a$10$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyz01234"
	require.NoError(t, s.SetPassword(hashLike))
	assert.NotEqual(t, hashLike, s.PasswordHash)
	assert.True(t, s.CheckPassword(hashLike))
	assert.False(t, s.CheckPassword("secret1"))
}

func TestSetPasswordHash(t *testing.T) {
	var src, s models.Shop
	require.NoError(t, src.SetPassword("secret1"))

	require.NoError(t, s.SetPasswordHash(src.PasswordHash))
	assert.Equal(t, src.PasswordHash, s.PasswordHash)
	assert.True(t, s.CheckPassword("secret1"))

	assert.Error(t, s.SetPasswordHash("secret1"))
	assert.Equal(t, src.PasswordHash, s.PasswordHash)
}

func TestCheckPasswordWithoutHash(t *testing.T) {
	var s models.Shop
	assert.False(t, s.CheckPassword(""))
}

func TestIdentityOwns(t *testing.T) {
	s := models.Shop{ID: "S1", Name: "Ravi", ShopName: "Ravi Stores", Email: "ravi@example.com"}
	id := s.Identity()

	assert.True(t, id.Owns(&models.Order{ShopID: "S1"}))
	assert.False(t, id.Owns(&models.Order{ShopID: "S2"}))
	assert.False(t, id.Owns(nil))
}

func TestDisplayItemsPrefersImage(t *testing.T) {
	o := models.Order{ItemsDescription: "2kg rice"}
	assert.Equal(t, "2kg rice", o.DisplayItems())

	o.ImageOfList = "https://cdn.example.com/list.jpg"
	assert.Equal(t, "https://cdn.example.com/list.jpg", o.DisplayItems())
}

func TestTrackProjection(t *testing.T) {
	o := models.Order{ID: "O1", Status: models.StatusPreparing, CustomerPhone: "9000000001"}
	assert.Equal(t, models.Tracking{ID: "O1", Status: models.StatusPreparing, ShopName: "Ravi Stores"}, o.Track("Ravi Stores"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ravi@example.com", models.NormalizeEmail("  Ravi@Example.COM "))
}
