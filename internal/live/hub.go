// Package live pushes scoreboard updates to spectators over websockets.
package live

import (
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cricketscore/internal/scoring"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Spectators only send control frames.
	maxMessageSize = 512

	sendBuffer = 16

	// How long finished matches are refused before their ids are pruned.
	endedRetention = 10 * time.Minute
)

// Message types
const (
	MsgTypeState = "STATE"
	MsgTypeFinal = "FINAL"
)

// Message is what spectators receive after every change to a match
type Message struct {
	Type    string       `json:"type"`
	MatchID string       `json:"matchId"`
	View    scoring.View `json:"view"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Hub tracks the spectators of every live match. The latest message of each
// match is replayed to spectators as they join. Matches that were finished or
// forgotten are refused, so a spectator arriving late cannot revive them.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*client]struct{}
	last    map[string]Message
	ended   map[string]time.Time
	debug   bool
}

// NewHub creates an empty hub
func NewHub(debug bool) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		last:    make(map[string]Message),
		ended:   make(map[string]time.Time),
		debug:   debug,
	}
}

// Publish sends the view to everyone watching the match. A FINAL message
// closes the match's connections once delivered.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	watchers := h.clients[msg.MatchID]
	for c := range watchers {
		select {
		case c.send <- msg:
		default:
			// slow spectator
			h.drop(c)
		}
	}

	if msg.Type == MsgTypeFinal {
		for c := range watchers {
			h.drop(c)
		}
		delete(h.last, msg.MatchID)
		h.markEnded(msg.MatchID)
		return
	}
	h.last[msg.MatchID] = msg

	if h.debug {
		log.Printf("[DEBUG] Published %s for match %s to %d spectators", msg.Type, msg.MatchID, len(watchers))
	}
}

// Forget drops the stored state of a match without notifying anyone, for
// live sessions that are abandoned rather than finished.
func (h *Hub) Forget(matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[matchID] {
		h.drop(c)
	}
	delete(h.last, matchID)
	h.markEnded(matchID)
}

// Ended reports whether the match was finished or forgotten recently
func (h *Hub) Ended(matchID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.ended[matchID]
	return ok
}

// markEnded must be called with h.mu held.
func (h *Hub) markEnded(matchID string) {
	now := time.Now()
	for id, at := range h.ended {
		if now.Sub(at) > endedRetention {
			delete(h.ended, id)
		}
	}
	h.ended[matchID] = now
}

// Spectators returns how many clients are watching a match
func (h *Hub) Spectators(matchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[matchID])
}

// register adds the spectator unless the match has ended. initial is stored
// when nothing has been published for the match yet.
func (h *Hub) register(c *client, initial *Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.ended[c.matchID]; ok {
		return false
	}
	if initial != nil {
		if _, ok := h.last[c.matchID]; !ok {
			h.last[c.matchID] = *initial
		}
	}

	watchers, ok := h.clients[c.matchID]
	if !ok {
		watchers = make(map[*client]struct{})
		h.clients[c.matchID] = watchers
	}
	watchers[c] = struct{}{}
	if msg, ok := h.last[c.matchID]; ok {
		c.send <- msg
	}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop must be called with h.mu held.
func (h *Hub) drop(c *client) {
	watchers := h.clients[c.matchID]
	if _, ok := watchers[c]; !ok {
		return
	}
	delete(watchers, c)
	close(c.send)
	if len(watchers) == 0 {
		delete(h.clients, c.matchID)
	}
}

// Close disconnects every spectator
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, watchers := range h.clients {
		for c := range watchers {
			h.drop(c)
		}
	}
	h.last = make(map[string]Message)
}

// ServeWS upgrades the request and streams the match to the new spectator.
// initial, when not nil, is sent if the hub has nothing stored for the match.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, matchID string, initial *Message) {
	if h.Ended(matchID) {
		http.Error(w, "match is not live", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading live connection: %v", err)
		return
	}

	c := &client{hub: h, conn: conn, matchID: matchID, send: make(chan Message, sendBuffer)}
	if !h.register(c, initial) {
		// ended while upgrading
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match is not live"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// client is a middleman between the websocket connection and the hub.
type client struct {
	hub     *Hub
	conn    *websocket.Conn
	matchID string
	send    chan Message
}

// readPump discards anything the spectator sends and keeps the read
// deadline moving with pongs.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Live connection error: %v", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
