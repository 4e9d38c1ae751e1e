package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"
)

// Topics a client can subscribe to.
const (
	TopicStock        = "stock"
	TopicLabelHistory = "label_history"
	TopicStockConfig  = "stock_config"
	TopicUsers        = "users"
	TopicSettings     = "settings"
)

var Topics = []string{TopicStock, TopicLabelHistory, TopicStockConfig, TopicUsers, TopicSettings}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Event is the message pushed to subscribers.
type Event struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	Data    any    `json:"data,omitempty"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Relay carries events between instances. Every instance subscribed to the relay
// receives every published event, its own included.
type Relay interface {
	Publish(ctx context.Context, msg []byte) error
	Subscribe(ctx context.Context, deliver func([]byte)) error
}

// Subscription is a connection with the topics it listens to. No topics means all.
type Subscription struct {
	Conn   Conn
	Topics map[string]bool
}

func NewSubscription(conn Conn, topics ...string) *Subscription {
	s := &Subscription{Conn: conn, Topics: map[string]bool{}}
	for _, t := range topics {
		if t != "" {
			s.Topics[t] = true
		}
	}
	return s
}

func (s *Subscription) wants(topic string) bool {
	return len(s.Topics) == 0 || s.Topics[topic]
}

type delivery struct {
	topic string
	msg   []byte
}

type Hub struct {
	Clients    map[Conn]*Subscription
	Register   chan *Subscription
	Unregister chan Conn
	broadcast  chan delivery
	outbound   chan delivery
	relay      Relay
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[Conn]*Subscription),
		Register:   make(chan *Subscription),
		Unregister: make(chan Conn),
		broadcast:  make(chan delivery, 256),
		outbound:   make(chan delivery, 256),
	}
}

// UseRelay routes every Publish through r. Call before Run.
func (h *Hub) UseRelay(r Relay) {
	h.relay = r
}

func (h *Hub) Run(ctx context.Context) {
	if h.relay != nil {
		go func() {
			if err := h.relay.Subscribe(ctx, h.Deliver); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("ws relay subscription ended")
			}
		}()
		go h.forward(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case sub := <-h.Register:
			h.mutex.Lock()
			h.Clients[sub.Conn] = sub
			h.mutex.Unlock()
			log.Debug().Int("clients", len(h.Clients)).Msg("ws client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case d := <-h.broadcast:
			h.mutex.Lock()
			for conn, sub := range h.Clients {
				if !sub.wants(d.topic) {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, d.msg); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// ClientCount is the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Publish sends ev to subscribers of its topic, on every instance when a relay
// is configured. It never blocks the caller: relayed events are queued for the
// forwarder and dropped when that queue is full.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("ws event not encodable")
		return
	}

	d := delivery{topic: ev.Type, msg: msg}
	if h.relay == nil {
		h.enqueue(d)
		return
	}
	select {
	case h.outbound <- d:
	default:
		log.Warn().Str("type", d.topic).Msg("ws relay queue full, event dropped")
	}
}

// forward pushes queued events to the relay in publish order. An event the relay
// refuses is delivered locally.
func (h *Hub) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-h.outbound:
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := h.relay.Publish(pctx, d.msg)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("ws relay publish failed, delivering locally")
				h.enqueue(d)
			}
		}
	}
}

// Deliver hands a relayed message to local subscribers.
func (h *Hub) Deliver(msg []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		log.Warn().Err(err).Msg("ws relay message dropped")
		return
	}
	h.enqueue(delivery{topic: head.Type, msg: msg})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.broadcast <- d:
	default:
		log.Warn().Str("type", d.topic).Msg("ws broadcast queue full, event dropped")
	}
}
