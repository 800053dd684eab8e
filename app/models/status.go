package models

import (
	"fmt"
	"strings"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusReceived       Status = "Received"
	StatusPreparing      Status = "Preparing"
	StatusReadyForPickup Status = "Ready for Pickup"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusCompleted      Status = "Completed"
	StatusCancelled      Status = "Cancelled"
)

// InitialStatus is the status of every newly created order.
const InitialStatus = StatusReceived

// Statuses lists every canonical value in progression order.
var Statuses = []Status{
	StatusReceived,
	StatusPreparing,
	StatusReadyForPickup,
	StatusOutForDelivery,
	StatusCompleted,
	StatusCancelled,
}

// lookup maps a folded spelling to its canonical status. Older clients
// still send "Recieved" and "Ready For Pickup".
var lookup = map[string]Status{
	"recieved": StatusReceived,
}

func init() {
	for _, s := range Statuses {
		lookup[fold(string(s))] = s
	}
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ParseStatus returns the canonical status for s, accepting legacy
// spellings and any casing.
func ParseStatus(s string) (Status, error) {
	if st, ok := lookup[fold(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) Valid() bool {
	st, ok := lookup[fold(string(s))]
	return ok && st == s
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Next returns the forward step from s for the given fulfillment type.
// ok is false for terminal states.
func (s Status) Next(t OrderType) (next Status, ok bool) {
	switch s {
	case StatusReceived:
		return StatusPreparing, true
	case StatusPreparing:
		if t == OrderTypeDelivery {
			return StatusOutForDelivery, true
		}
		return StatusReadyForPickup, true
	case StatusReadyForPickup, StatusOutForDelivery:
		return StatusCompleted, true
	}
	return "", false
}

// CanTransition reports whether an order of type t may move from s to
// to. Cancelled is reachable from every non-terminal state.
func (s Status) CanTransition(to Status, t OrderType) bool {
	if s.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := s.Next(t)
	return ok && next == to
}

// OrderType is how the customer receives the order.
type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

// ParseOrderType is case-insensitive.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToLower(strings.TrimSpace(s))) {
	case OrderTypePickup:
		return OrderTypePickup, nil
	case OrderTypeDelivery:
		return OrderTypeDelivery, nil
	}
	return "", fmt.Errorf("unknown order type %q", s)
}
