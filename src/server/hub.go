package server

import (
	"encoding/json"
	"net/http"

	"market-confluence/src/helpers"
	"market-confluence/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *FastAPIServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			s.setConnections(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setConnections(len(s.clients))
			// Send initial state on connect
			if initial := s.initialMessage(); initial != nil {
				client.send <- initial
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
				s.setConnections(len(s.clients))
			}

		case message := <-s.broadcast:
			topic := message.Topic()
			for client := range s.clients {
				if !client.wants(topic) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					client.close()
				}
			}
			s.setConnections(len(s.clients))
		}
	}
}

func (s *FastAPIServer) setConnections(n int) {
	s.stateMutex.Lock()
	s.connections = n
	s.stateMutex.Unlock()
	s.Metrics.SetClients(n)
}

// initialMessage is the latest snapshot relabelled for a new listener.
func (s *FastAPIServer) initialMessage() *models.MStreamMessage {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if s.latestState == nil {
		return nil
	}
	initial := *s.latestState
	initial.Type = models.StreamInitial
	return &initial
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateLatest replaces the cached snapshot served to new listeners.
func (s *FastAPIServer) UpdateLatest(payload interface{}) {
	msg, ok := streamMessage(payload, s.now())
	if !ok || msg.Snapshot == nil {
		s.Logger.Warning("UpdateLatest expected a snapshot, got %T", payload)
		return
	}
	s.stateMutex.Lock()
	s.latestState = msg
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------

// Broadcast queues a snapshot or a batch of events for every listener
// subscribed to its topic. Snapshots also become the latest state.
func (s *FastAPIServer) Broadcast(payload interface{}) {
	msg, ok := streamMessage(payload, s.now())
	if !ok {
		s.Logger.Warning("Broadcast ignored payload of type %T", payload)
		return
	}
	if msg.Snapshot != nil {
		s.stateMutex.Lock()
		s.latestState = msg
		s.stateMutex.Unlock()
	}

	select {
	case s.broadcast <- msg:
	case <-s.quit:
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MStreamMessage, 256),
	}

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *FastAPIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		client.subscribe(cmd.Topics)
		if client.wants(models.TopicSnapshot) {
			if initial := s.initialMessage(); initial != nil {
				client.trySend(initial)
			}
		}

	case "snapshot":
		client.trySend(s.snapshotResponse(cmd.At))
	}
}

// snapshotResponse builds a one-off snapshot for a websocket request.
func (s *FastAPIServer) snapshotResponse(rawAt string) *models.MStreamMessage {
	at, err := helpers.ParseInstant(rawAt, s.now())
	if err != nil {
		return &models.MStreamMessage{Type: models.StreamError, Error: err.Error()}
	}
	snap, err := s.Engine.Build(at, s.Params)
	if err != nil {
		return &models.MStreamMessage{Type: models.StreamError, Error: err.Error()}
	}
	return &models.MStreamMessage{Type: models.StreamSnapshot, Timestamp: at.UnixMilli(), Snapshot: snap}
}
