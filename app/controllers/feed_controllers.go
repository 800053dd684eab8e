package controllers

import (
	"net/http"
	"time"

	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/response"
	"github.com/quickkiraana/kiraana/pkg/sse"
	"github.com/quickkiraana/kiraana/pkg/ws"
)

const streamHeartbeat = 25 * time.Second

type FeedController struct {
	hub *ws.Hub
}

func NewFeedController(hub *ws.Hub) *FeedController {
	return &FeedController{hub: hub}
}

// Feed handles GET /api/orders/feed. The query-token guard has already
// attached the shop; the connection only ever receives that shop's events.
func (c *FeedController) Feed(w http.ResponseWriter, r *http.Request) {
	ws.Upgrade(w, r, c.hub, identity(r).ShopID)
}

// Stream handles GET /api/orders/feed/stream, the same feed as
// Server-Sent Events.
func (c *FeedController) Stream(w http.ResponseWriter, r *http.Request) {
	shopID := identity(r).ShopID
	events, cancel := c.hub.Subscribe(shopID)
	defer cancel()

	stream, err := sse.New(w, r)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("sse: stream unavailable", "error", err)
		response.Message(w, http.StatusNotImplemented, "Streaming not supported")
		return
	}
	_ = stream.Comment("connected")
	if err := stream.Pipe(events, "order", streamHeartbeat); err != nil {
		logger.WithCtx(r.Context()).Debug("sse: client gone", "shop_id", shopID.String(), "error", err)
	}
}
