// src/handlers/feed_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
)

const (
	feedSubscriberBuffer = 32
	feedWriteWait        = 10 * time.Second
	feedPongWait         = 60 * time.Second
	feedPingPeriod       = (feedPongWait * 9) / 10
)

// FeedHandler serves the live logs stream and the live mode switch.
type FeedHandler struct {
	feed     *services.LiveFeed
	upgrader websocket.Upgrader
	// base outlives requests so live mode keeps running after the toggle returns.
	base context.Context
}

func NewFeedHandler(base context.Context, feed *services.LiveFeed, origins []string) *FeedHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &FeedHandler{
		feed: feed,
		base: base,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// HandleLiveLogs upgrades to a websocket and writes one JSON message per
// appended log record until the client goes away.
func (h *FeedHandler) HandleLiveLogs(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctxLogger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.feed.Subscribe(feedSubscriberBuffer)
	defer unsubscribe()
	ctxLogger.Info("Live log subscriber connected", "subscribers", h.feed.Subscribers())

	// The read loop only exists to notice the client closing the socket.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			ctxLogger.Info("Live log subscriber disconnected")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				ctxLogger.Debug("Live log write failed", "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type liveStatus struct {
	Running bool `json:"running"`
	Changed bool `json:"changed"`
}

func (h *FeedHandler) HandleStartLive(w http.ResponseWriter, r *http.Request) {
	changed := h.feed.Start(h.base)
	logger.FromContext(r.Context()).Info("Live mode start requested", "changed", changed)
	utils.SendJSON(w, liveStatus{Running: h.feed.Running(), Changed: changed}, http.StatusOK)
}

func (h *FeedHandler) HandleStopLive(w http.ResponseWriter, r *http.Request) {
	changed := h.feed.Stop()
	logger.FromContext(r.Context()).Info("Live mode stop requested", "changed", changed)
	utils.SendJSON(w, liveStatus{Running: h.feed.Running(), Changed: changed}, http.StatusOK)
}

func (h *FeedHandler) HandleLiveStatus(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, liveStatus{Running: h.feed.Running()}, http.StatusOK)
}
