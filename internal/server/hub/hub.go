package hub

import (
	"encoding/json"
	"sync"

	"github.com/tailtalk/roomsync/pkg/log"
)

// Hub tracks connected clients and fans events out per room. Broadcasts
// always include the sender: the engine relies on receiving the echo of its
// own intents.
type Hub struct {
	clients    map[string]*Client          // clientID -> client
	rooms      map[string]map[string]*Client // roomID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage
	mu         sync.RWMutex
}

type roomMessage struct {
	RoomID  string
	Message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.L().Debug().Str("client_id", client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for roomID, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, roomID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.L().Debug().Str("client_id", client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.rooms[msg.RoomID] {
				select {
				case client.Send <- msg.Message:
				default:
					go h.removeClient(client)
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

func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.ID] = client
	log.L().Info().Str("client_id", client.ID).Str(log.FieldRoomID, roomID).Msg("client joined room")
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	log.L().Info().Str("client_id", client.ID).Str(log.FieldRoomID, roomID).Msg("client left room")
}

// BroadcastToRoom sends one event to every client joined to the room,
// sender included.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &roomMessage{
		RoomID:  roomID,
		Message: data,
	}
	return nil
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
