package services

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"promptparty/models"
)

// Hub fans live session events out to connected websocket clients. Clients
// are keyed by session id; a slow client gets dropped rather than blocking
// the broadcast.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *logrus.Logger
}

type Client struct {
	hub         *Hub
	id          string
	socket      *websocket.Conn
	send        chan []byte
	sessionID   string
	participant string
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.WithFields(logrus.Fields{
				"client_id":  client.id,
				"session_id": client.sessionID,
				"clients":    total,
			}).Info("client registered")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.WithFields(logrus.Fields{
					"client_id":  client.id,
					"session_id": client.sessionID,
					"clients":    len(h.clients),
				}).Info("client unregistered")
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.RLock()
			var stale []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					stale = append(stale, client)
				}
			}
			h.mutex.RUnlock()
			h.evict(stale)
		}
	}
}

// evict drops clients whose send buffers were full. Eviction takes the write
// lock and re-checks membership, so concurrent broadcasts never double-close
// a send channel.
func (h *Hub) evict(stale []*Client) {
	if len(stale) == 0 {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, client := range stale {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// BroadcastToSession sends a typed event to every client watching the
// session.
func (h *Hub) BroadcastToSession(sessionID, messageType string, payload interface{}) {
	message := Message{Type: messageType, Payload: payload}
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal broadcast message")
		return
	}

	h.mutex.RLock()
	var stale []*Client
	for client := range h.clients {
		if !strings.EqualFold(client.sessionID, sessionID) {
			continue
		}
		select {
		case client.send <- data:
		default:
			stale = append(stale, client)
		}
	}
	h.mutex.RUnlock()
	h.evict(stale)
}

// BroadcastParticipants pushes the current roster to a session's clients.
func (h *Hub) BroadcastParticipants(sessionID string, participants []models.Participant) {
	h.BroadcastToSession(sessionID, "participants_update", map[string]interface{}{
		"participants": participants,
	})
}

// ConnectedClients counts the clients watching a session.
func (h *Hub) ConnectedClients(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	count := 0
	for client := range h.clients {
		if strings.EqualFold(client.sessionID, sessionID) {
			count++
		}
	}
	return count
}

func (h *Hub) RegisterClient(conn *websocket.Conn, sessionID, participant string) *Client {
	client := &Client{
		hub:         h,
		id:          uuid.NewString(),
		socket:      conn,
		send:        make(chan []byte, 256),
		sessionID:   sessionID,
		participant: participant,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("websocket read error")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.WithError(err).Warn("discarding malformed client message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		response := Message{Type: "pong", Payload: "pong"}
		data, _ := json.Marshal(response)
		c.send <- data

	default:
		c.hub.log.WithFields(logrus.Fields{
			"type":       msg.Type,
			"session_id": c.sessionID,
		}).Debug("ignoring unknown message type")
	}
}
