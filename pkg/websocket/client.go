// pkg/websocket/client.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-engine/internal/attempt"
	"quiz-engine/internal/models"
	"quiz-engine/pkg/logger"
)

const flushTimeout = 10 * time.Second

// InboundMessage is what a participant session sends: answer edits and the
// explicit submit action.
type InboundMessage struct {
	Type       string `json:"type"`
	QuestionID uint   `json:"question_id,omitempty"`
	Answer     string `json:"answer,omitempty"`
}

// Client is one open session on one attempt. It owns the session-local pieces:
// the auto-save coordinator and the timer session. Dropping the connection
// cancels only these; the attempt itself stays resumable on the server.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	attemptID   uint
	participant string
	timerMode   models.TimerMode

	coordinator *attempt.Coordinator
	timer       *attempt.TimerSession

	finalized  atomic.Bool
	finalizeMu sync.Mutex
}

func newClient(hub *Hub, conn *websocket.Conn, att *models.QuizAttempt, quiz *models.Quiz, participant string) *Client {
	c := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		done:        make(chan struct{}),
		attemptID:   att.ID,
		participant: participant,
		timerMode:   quiz.TimerMode,
	}

	c.coordinator = attempt.NewCoordinator(att.ID, hub.engine, hub.debounce, func(questionID uint, err error) {
		c.sendEvent("save_error", map[string]interface{}{
			"question_id": questionID,
			"error":       "answer could not be saved, will retry",
		})
	})

	c.timer = attempt.NewTimerSession(quiz.TimerMode, att.StartedAt, quiz.TimerSeconds, func() {
		// Fired from the tick loop; finalize flushes and submits off of it.
		go c.finalize("expired")
	})
	if !att.Submitted {
		c.timer.Start()
	} else {
		c.finalized.Store(true)
	}

	return c
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.coordinator.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendEvent("error", map[string]string{"error": "malformed message"})
			continue
		}

		switch msg.Type {
		case "answer":
			if c.finalized.Load() {
				c.sendEvent("error", map[string]string{"error": "attempt already submitted"})
				continue
			}
			if !c.coordinator.Edit(msg.QuestionID, msg.Answer) {
				c.sendEvent("error", map[string]string{"error": "session closed"})
			}
		case "submit":
			go c.finalize("participant")
		default:
			c.sendEvent("error", map[string]string{"error": "unknown message type"})
		}
	}
}

func (c *Client) writePump() {
	pingTicker := time.NewTicker(pingPeriod)
	tickTicker := time.NewTicker(time.Second)
	defer func() {
		pingTicker.Stop()
		tickTicker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-tickTicker.C:
			if c.timerMode != models.TimerModeGlobal || c.finalized.Load() {
				continue
			}
			remaining := c.timer.Tick(time.Now())
			c.sendEvent("tick", map[string]interface{}{
				"remaining_seconds": remaining,
				"expired":           c.timer.Expired(),
			})

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// finalize runs the terminal transition for this session: force-flush the
// coordinator, then submit. The storage guard makes racing sessions safe; the
// local flag just stops duplicate work. If the flush cannot complete, its
// pending edits are abandoned and the participant is told before the submit
// proceeds. A failed submit is reported, leaves the attempt active and may be
// retried deliberately (another submit message, or a fresh session).
func (c *Client) finalize(trigger string) {
	c.finalizeMu.Lock()
	defer c.finalizeMu.Unlock()
	if c.finalized.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := c.coordinator.Flush(ctx); err != nil {
		logger.Log.Warn("final flush incomplete",
			zap.Uint("attempt_id", c.attemptID),
			zap.String("trigger", trigger),
			zap.Error(err))
		c.sendEvent("save_error", map[string]string{
			"error": "some answers could not be saved before submission",
		})
	}

	result, err := c.hub.engine.Submit(c.attemptID)
	if err != nil {
		logger.Log.Error("submit failed",
			zap.Uint("attempt_id", c.attemptID),
			zap.String("trigger", trigger),
			zap.Error(err))
		c.sendEvent("submit_error", map[string]string{
			"error":   "submission failed, attempt is still active",
			"trigger": trigger,
		})
		return
	}

	c.finalized.Store(true)
	c.hub.BroadcastMessage(c.attemptID, "submitted", map[string]interface{}{
		"taken_at": result.TakenAt,
		"trigger":  trigger,
	})
}

// sendEvent queues an event for this session. The send channel is never
// closed; once done is closed, events for the gone connection are dropped.
func (c *Client) sendEvent(messageType string, data interface{}) {
	messageBytes, err := json.Marshal(Message{Type: messageType, Data: data})
	if err != nil {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- messageBytes:
	default:
	}
}
