package models

import (
	"errors"
	"strings"
	"time"

	"github.com/quickkiraana/kiraana/pkg/auth"
)

// Shop is a shopkeeper account and its storefront profile.
type Shop struct {
	ID           ShopID    `gorm:"primaryKey;size:26"            bson:"_id"           json:"id"`
	Name         string    `gorm:"size:255;not null"             bson:"name"          json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" bson:"email"         json:"email"`
	PasswordHash string    `gorm:"column:password;size:255;not null" bson:"password" json:"-"`
	Phone        string    `gorm:"size:32;not null"              bson:"phone"         json:"phone"`
	ShopName     string    `gorm:"size:255;not null"             bson:"shopName"      json:"shopName"`
	Pincode      string    `gorm:"size:6;not null;index"         bson:"pincode"       json:"pincode"`
	ShopImage    string    `gorm:"size:1024"                     bson:"shopImage"     json:"shopImage,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword stores a bcrypt hash of plain. Call it only when the
// shopkeeper supplies a new password.
func (s *Shop) SetPassword(plain string) error {
	hash, err := auth.HashPassword(plain)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

// SetPasswordHash stores an existing bcrypt hash, as imported accounts and
// fixtures carry.
func (s *Shop) SetPasswordHash(hash string) error {
	if !auth.IsHash(hash) {
		return errors.New("models: password hash is not bcrypt")
	}
	s.PasswordHash = hash
	return nil
}

func (s *Shop) CheckPassword(plain string) bool {
	return s.PasswordHash != "" && auth.CheckPassword(s.PasswordHash, plain)
}

// Identity returns the authenticated view of s.
func (s *Shop) Identity() Identity {
	return Identity{ShopID: s.ID, Name: s.Name, ShopName: s.ShopName, Email: s.Email}
}

// Identity is the shopkeeper attached to an authenticated request.
type Identity struct {
	ShopID   ShopID `json:"id"`
	Name     string `json:"name"`
	ShopName string `json:"shopName"`
	Email    string `json:"email"`
}

// Owns reports whether the identity owns o.
func (i Identity) Owns(o *Order) bool {
	return o != nil && o.ShopID == i.ShopID
}
