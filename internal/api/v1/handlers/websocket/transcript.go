package websocket

import (
	"net/http"
	"time"

	"github.com/deepgram/parlor/internal/api/v1/middleware"
	"github.com/deepgram/parlor/internal/connections"
	"github.com/deepgram/parlor/internal/domain/chat/models"
	"github.com/deepgram/parlor/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const eventBufferSize = 64

const (
	EventSnapshot = "snapshot"
	EventMessage  = "message"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is pushed to transcript listeners. A snapshot carries the whole transcript,
// a message event one appended message.
type Event struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Message  *models.Message  `json:"message,omitempty"`
	Messages []models.Message `json:"messages,omitempty"`
}

// HandleTranscriptWebSocket streams the session transcript: a snapshot first, then
// every appended message until the client leaves or the session ends.
func HandleTranscriptWebSocket(manager *connections.Manager, w http.ResponseWriter, r *http.Request) {
	log := logger.For(logger.WEBSOCKET)
	sess := middleware.GetSession(r)
	timeouts := manager.GetTimeouts()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	manager.AddConnection(conn, sess.ID())
	defer manager.RemoveConnection(conn)

	events := make(chan Event, eventBufferSize)
	snapshot, unsubscribe := sess.Transcript().Snapshot(func(msg models.Message) {
		select {
		case events <- Event{ID: uuid.New().String(), Type: EventMessage, Message: &msg}:
		default:
			log.Warn().Str("session_id", sess.ID()).Msg("Listener too slow, dropping transcript event")
		}
	})
	defer unsubscribe()

	log.Info().Str("session_id", sess.ID()).Int("listeners", manager.GetSessionConnectionCount(sess.ID())).Msg("Transcript listener connected")

	write := func(ev Event) error {
		if err := conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(ev)
	}

	if err := write(Event{ID: uuid.New().String(), Type: EventSnapshot, Messages: snapshot}); err != nil {
		log.Warn().Err(err).Msg("Failed to send transcript snapshot")
		return
	}

	// Incoming frames are discarded; reading keeps pong and close handling alive.
	readDone := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("Unexpected WebSocket closure")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(timeouts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if err := write(ev); err != nil {
				log.Debug().Err(err).Msg("Failed to send transcript event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeouts.WriteWait)); err != nil {
				return
			}
		case <-sess.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
				time.Now().Add(timeouts.WriteWait))
			return
		case <-readDone:
			log.Info().Str("session_id", sess.ID()).Msg("Transcript listener disconnected")
			return
		}
	}
}
