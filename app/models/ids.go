package models

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// ShopID identifies a shop. Ownership checks compare ShopIDs directly.
type ShopID string

// OrderID identifies an order.
type OrderID string

func (id ShopID) String() string  { return string(id) }
func (id OrderID) String() string { return string(id) }

// Valid reports whether id is a well-formed identifier.
func (id ShopID) Valid() bool  { return validID(string(id)) }
func (id OrderID) Valid() bool { return validID(string(id)) }

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func NewShopID() ShopID   { return ShopID(newID(time.Now())) }
func NewOrderID() OrderID { return OrderID(newID(time.Now())) }

// NewOrderIDAt mints an id whose time component is t, so ids sort with
// creation time.
func NewOrderIDAt(t time.Time) OrderID { return OrderID(newID(t)) }

func validID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
