package hub

import (
	"sync"

	"github.com/lumastream/chat-gateway/internal/config"
	"github.com/lumastream/chat-gateway/pkg/log"
)

// Hub is the broadcast router: it tracks which clients are subscribed to
// which channel and fans published frames out to them.
//
// All register/unregister/broadcast events are processed by the single Run
// goroutine, so frames published for a channel in a given order reach every
// subscriber's send queue in that order.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	channels   map[string]map[string]*Client // channelID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *channelFrame
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

type channelFrame struct {
	ChannelID string
	Frame     []byte
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *channelFrame, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for channelID, members := range h.channels {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.channels, channelID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if members, ok := h.channels[msg.ChannelID]; ok {
				for _, client := range members {
					select {
					case client.Send <- msg.Frame:
					default:
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join subscribes a client to a channel's broadcast group.
func (h *Hub) Join(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[channelID]; !ok {
		h.channels[channelID] = make(map[string]*Client)
	}
	h.channels[channelID][client.ID] = client
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldChannelID, channelID).Msg("client joined channel")
}

// Leave removes a client from a channel's broadcast group.
func (h *Hub) Leave(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.channels[channelID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.channels, channelID)
		}
	}
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldChannelID, channelID).Msg("client left channel")
}

// Broadcast queues a raw frame for delivery to every subscriber of a channel.
func (h *Hub) Broadcast(channelID string, frame []byte) {
	h.broadcast <- &channelFrame{
		ChannelID: channelID,
		Frame:     frame,
	}
}

// SubscriberCount returns the number of clients subscribed to a channel.
func (h *Hub) SubscriberCount(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.channels[channelID]; ok {
		return len(members)
	}
	return 0
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
