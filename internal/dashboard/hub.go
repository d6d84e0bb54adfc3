// Package dashboard is the spectator surface: a gin HTTP API plus a
// gorilla/websocket broadcast hub pushing round-state events as they
// happen. It never gates protocol progress — broadcasting is
// fire-and-forget, the way the teacher's internal/api.Hub treats its
// websocket clients as best-effort observers. Unlike that hub, which
// broadcasts every message to every connected client regardless of what
// it carries, this one scopes delivery to the session a spectator asked
// to watch: a single dashboard process can have several challenge/
// response sessions live at once, and a spectator following session A
// should never see session B's round events interleaved on its socket.
package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local spectator dashboard, not a public surface
	},
}

// roundEventMsg is one published event queued for delivery, tagged with
// the session it belongs to so Run can filter it per client.
type roundEventMsg struct {
	sessionID string
	payload   []byte
}

// Hub maintains the set of connected spectator clients and fans out
// round-state events to them. Each client is registered with a session
// filter (the "session" query parameter on /ws): an empty filter
// watches every session, a non-empty one watches only that session's
// events.
type Hub struct {
	clients   map[*websocket.Conn]string
	broadcast chan roundEventMsg
	mutex     sync.Mutex
}

// NewHub returns an idle hub; call Run in its own goroutine to start
// fanning out broadcasts.
func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan roundEventMsg, 256),
		clients:   make(map[*websocket.Conn]string),
	}
}

// Run drains the broadcast channel until it's closed, writing every
// message to every client whose session filter matches (or is empty).
func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mutex.Lock()
		for client, sessionFilter := range h.clients {
			if !matchesSession(sessionFilter, msg.sessionID) {
				continue
			}
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
				log.Warn().Err(err).Msg("dashboard websocket write failed, dropping client")
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades an incoming HTTP request to a websocket connection
// and registers it as a broadcast recipient, scoped to the session named
// by the "session" query parameter (unset or empty watches every
// session).
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("dashboard websocket upgrade failed")
		return
	}
	sessionFilter := c.Query("session")

	h.mutex.Lock()
	h.clients[conn] = sessionFilter
	count := len(h.clients)
	h.mutex.Unlock()
	log.Info().Int("clients", count).Str("session_filter", sessionFilter).Msg("dashboard spectator connected")

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			remaining := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			log.Info().Int("clients", remaining).Msg("dashboard spectator disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// matchesSession reports whether a client registered under filter
// should receive an event published under sessionID: an empty filter
// watches every session, otherwise the two must match exactly.
func matchesSession(filter, sessionID string) bool {
	return filter == "" || filter == sessionID
}

// Broadcast enqueues data for delivery to every client subscribed to
// sessionID (or to every client, if sessionID is empty). The core
// protocol never waits on this call.
func (h *Hub) Broadcast(sessionID string, data []byte) {
	select {
	case h.broadcast <- roundEventMsg{sessionID: sessionID, payload: data}:
	default:
		log.Warn().Msg("dashboard broadcast channel full, dropping event")
	}
}
