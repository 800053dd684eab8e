package services

import (
	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/event"
	"github.com/quickkiraana/kiraana/pkg/metrics"
)

// Event names fired by OrderService.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload of every order event. From is empty for
// order.created.
type OrderEvent struct {
	Type  string        `json:"type"`
	Order models.Order  `json:"order"`
	From  models.Status `json:"from,omitempty"`
}

// Publisher delivers an event to one shop's live dashboard connections.
type Publisher interface {
	Publish(shopID models.ShopID, v interface{})
}

// RegisterListeners wires the order events to metrics and, when feed is
// non-nil, the live dashboard feed. Tracking cache invalidation is not a
// listener: OrderService does it before returning.
func RegisterListeners(bus *event.Bus, feed Publisher) {
	onEvent := func(payload interface{}) {
		ev, ok := payload.(OrderEvent)
		if !ok {
			return
		}

		switch ev.Type {
		case EventOrderCreated:
			metrics.OrdersCreated.WithLabelValues(string(ev.Order.OrderType)).Inc()
		case EventOrderStatusChanged:
			metrics.OrderTransitions.WithLabelValues(string(ev.From), string(ev.Order.Status)).Inc()
		}

		if feed != nil {
			feed.Publish(ev.Order.ShopID, ev)
		}
	}

	bus.Listen(EventOrderCreated, onEvent)
	bus.Listen(EventOrderStatusChanged, onEvent)
}
