package websocket

import "github.com/rs/zerolog/log"

// Delivery is a message addressed to a set of users.
type Delivery struct {
	UserIDs []int64
	Message []byte
}

// Hub maintains the set of active clients and delivers messages to them.
type Hub struct {
	// Registered clients, indexed by the user they belong to.
	clients map[int64]map[*Client]bool

	// Messages addressed to specific users.
	deliver chan Delivery

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		deliver:    make(chan Delivery, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for _, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
			}
			h.clients = make(map[int64]map[*Client]bool)
			return
		case client := <-h.Register:
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			log.Info().Int64("user_id", client.UserID).Msg("Client connected")
		case client := <-h.Unregister:
			h.remove(client)
		case d := <-h.deliver:
			for _, userID := range d.UserIDs {
				for client := range h.clients[userID] {
					select {
					case client.Send <- d.Message:
					default:
						// Slow consumer; drop it rather than block the hub.
						h.remove(client)
					}
				}
			}
		}
	}
}

// Stop terminates Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastTo queues a message for every connection of the given users.
// It never blocks the caller; when the queue is full the message is dropped.
func (h *Hub) BroadcastTo(userIDs []int64, message []byte) bool {
	select {
	case h.deliver <- Delivery{UserIDs: userIDs, Message: message}:
		return true
	default:
		log.Warn().Int("recipients", len(userIDs)).Msg("Notification queue full, dropping message")
		return false
	}
}

// Attach registers a client unless the hub has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Detach unregisters a client. It is a no-op once the hub has stopped.
func (h *Hub) Detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
	log.Info().Int64("user_id", client.UserID).Msg("Client disconnected")
}
