package handler

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"go-label-ws/internal/ws"
)

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Upgrade only lets websocket handshakes through and keeps the requested
// topics for Serve.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}
	c.Locals("topics", parseTopics(c.Query("topics")))
	return c.Next()
}

func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		for _, known := range ws.Topics {
			if t == known {
				topics = append(topics, t)
				break
			}
		}
	}
	return topics
}

// Serve registers the connection and keeps it open until the client leaves.
// GET /ws?topics=stock,label_history&token=
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		topics, _ := c.Locals("topics").([]string)
		h.hub.Register <- ws.NewSubscription(c, topics...)
		defer func() { h.hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
