// pkg/websocket/hub.go
package websocket

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-engine/internal/attempt"
	"quiz-engine/internal/auth"
	"quiz-engine/internal/models"
	"quiz-engine/pkg/logger"
)

// Message is the standard envelope exchanged over a session socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins. Adjust this in production!
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AttemptService is the slice of the attempt engine a session socket drives.
type AttemptService interface {
	GetAttempt(attemptID uint) (*models.QuizAttempt, error)
	QuizForAttempt(attemptID uint) (*models.Quiz, error)
	SaveAnswer(attemptID, questionID uint, answer string) error
	Submit(attemptID uint) (*attempt.SubmitResult, error)
}

// Hub tracks one room per attempt. Two tabs on the same attempt share a room:
// both receive timer ticks and the terminal submitted event, and both may push
// edits; the storage layer arbitrates their races, not the hub.
type Hub struct {
	clients      map[*Client]bool
	attemptRooms map[uint]map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	mu           sync.RWMutex

	engine    AttemptService
	jwtSecret string
	debounce  time.Duration
}

func NewHub(engine AttemptService, jwtSecret string, debounce time.Duration) *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		attemptRooms: make(map[uint]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		engine:       engine,
		jwtSecret:    jwtSecret,
		debounce:     debounce,
	}
}

// Run listens on the register and unregister channels and updates hub state.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, exists := h.attemptRooms[client.attemptID]; !exists {
				h.attemptRooms[client.attemptID] = make(map[*Client]bool)
			}
			h.attemptRooms[client.attemptID][client] = true
			h.mu.Unlock()
			logger.Log.Debug("ws client joined",
				zap.Uint("attempt_id", client.attemptID),
				zap.String("participant", client.participant))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				if room, exists := h.attemptRooms[client.attemptID]; exists {
					delete(room, client)
					if len(room) == 0 {
						delete(h.attemptRooms, client.attemptID)
					}
				}
				// send stays open; done alone stops the pumps, and any
				// finalize still in flight drops its events instead of
				// writing to a closed channel.
				delete(h.clients, client)
				close(client.done)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToAttempt queues a raw message for every client in the attempt's
// room. Clients with a full send channel are dropped rather than blocking the
// broadcast.
func (h *Hub) BroadcastToAttempt(attemptID uint, message []byte) {
	h.mu.RLock()
	room := h.attemptRooms[attemptID]
	clientsCopy := make([]*Client, 0, len(room))
	for client := range room {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		select {
		case client.send <- message:
		default:
			logger.Log.Warn("ws send channel full, dropping client",
				zap.Uint("attempt_id", attemptID))
			h.unregister <- client
		}
	}
}

// BroadcastMessage marshals the envelope and broadcasts it to the room.
func (h *Hub) BroadcastMessage(attemptID uint, messageType string, data interface{}) {
	msg := Message{Type: messageType, Data: data}
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("marshaling ws message", zap.Error(err))
		return
	}
	h.BroadcastToAttempt(attemptID, messageBytes)
}

// HandleWebSocket upgrades the connection and opens a session on an attempt:
// inbound answer edits feed the auto-save coordinator, a per-second tick loop
// drives the timer session, expiry forces a flush-then-submit.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	attemptID64, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid attempt id", http.StatusBadRequest)
		return
	}
	attemptID := uint(attemptID64)

	participant, err := auth.ParseToken(h.jwtSecret, r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	att, err := h.engine.GetAttempt(attemptID)
	if err != nil {
		http.Error(w, "Attempt not found", http.StatusNotFound)
		return
	}
	if att.ParticipantEmail != participant {
		http.Error(w, "Attempt not found", http.StatusNotFound)
		return
	}

	quiz, err := h.engine.QuizForAttempt(attemptID)
	if err != nil {
		http.Error(w, "Quiz not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("ws upgrade", zap.Error(err))
		return
	}

	client := newClient(h, conn, att, quiz, participant)
	h.register <- client

	go client.writePump()
	go client.readPump()

	if att.Submitted {
		// Terminal attempts get the terminal view, not a session.
		client.sendEvent("submitted", map[string]interface{}{"taken_at": att.TakenAt})
	}
}
