package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/example/pairchat/internal/cache"
	"github.com/example/pairchat/internal/metrics"
	"github.com/example/pairchat/internal/models"
	"github.com/example/pairchat/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// MessageCache is the bounded recent-history buffer consulted on connect
// and pushed to on every relayed message. Implemented by cache.RecentCache.
type MessageCache interface {
	Push(ctx context.Context, roomKey string, e cache.Entry) error
	Recent(ctx context.Context, roomKey string, limit int) ([]cache.Entry, error)
}

// Client is one live connection to a room. Each physical connection is a
// fresh instance; there is no resume.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	store    store.Store
	cache    MessageCache
	logger   zerolog.Logger
	userID   int
	username string
	roomKey  string
	send     chan []byte
	done     chan struct{}
}

// inboundFrame is the single client-to-server frame shape.
type inboundFrame struct {
	Message string `json:"message"`
}

// ServeWs validates the connection attempt and, if it passes, upgrades it
// and runs the session. Checks happen in order: resolved caller, parsable
// peer, known peer, room membership. Any failure rejects the connection
// before the handshake with no side effects beyond the idempotent room
// create.
func ServeWs(hub *Hub, st store.Store, mc MessageCache, logger zerolog.Logger, w http.ResponseWriter, r *http.Request, userID int) {
	user, err := st.GetUserByID(userID)
	if err != nil {
		metrics.ConnectionsRejected.WithLabelValues("unauthorized").Inc()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	peerID, err := strconv.Atoi(mux.Vars(r)["peerID"])
	if err != nil {
		metrics.ConnectionsRejected.WithLabelValues("bad_peer").Inc()
		http.Error(w, "Invalid peer id", http.StatusBadRequest)
		return
	}

	peer, err := st.GetUserByID(peerID)
	if err != nil {
		metrics.ConnectionsRejected.WithLabelValues("peer_not_found").Inc()
		http.Error(w, "Peer not found", http.StatusNotFound)
		return
	}

	roomKey := models.RoomKey(user.ID, peer.ID)
	if _, err := st.EnsureRoom(user.ID, peer.ID); err != nil {
		logger.Error().Err(err).Str("room", roomKey).Msg("ensure room failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Membership re-check against a race with EnsureRoom.
	ok, err := st.IsParticipant(roomKey, user.ID)
	if err != nil || !ok {
		metrics.ConnectionsRejected.WithLabelValues("not_participant").Inc()
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		store:    st,
		cache:    mc,
		logger:   logger.With().Int("user_id", user.ID).Str("room", roomKey).Logger(),
		userID:   user.ID,
		username: user.Username,
		roomKey:  roomKey,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}

	hub.Subscribe(roomKey, client)
	metrics.ConnectionsActive.Inc()

	go client.writePump()
	client.replayRecent()
	client.readPump()
}

// replayRecent sends the cached window to the client, oldest of the window
// first, one frame per entry. The cache is not authoritative so failures
// only cost the replay, never the connection.
func (c *Client) replayRecent() {
	entries, err := c.cache.Recent(context.Background(), c.roomKey, cache.DefaultCapacity)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache replay unavailable")
		return
	}

	dropped := 0
	for i := len(entries) - 1; i >= 0; i-- {
		payload, err := json.Marshal(entries[i])
		if err != nil {
			continue
		}
		if !c.trySend(payload) {
			metrics.ReplayDrops.Inc()
			dropped++
		}
	}
	if dropped > 0 {
		c.logger.Warn().Int("dropped", dropped).Msg("replay frames dropped: send buffer full")
	}
}

// readPump consumes client frames until the connection dies. Its deferred
// cleanup is the session's guaranteed release: the subscription is removed
// no matter which path ended the session.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.roomKey, c)
		close(c.done)
		c.conn.Close()
		metrics.ConnectionsActive.Dec()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read failed")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn().Err(err).Msg("closing session: malformed frame")
			return
		}
		if frame.Message == "" {
			continue
		}

		if err := c.relay(frame.Message); err != nil {
			// Terminal: the client must not see a false success after a
			// failed persist.
			c.logger.Error().Err(err).Msg("closing session: relay failed")
			return
		}
	}
}

// relay runs the dual-write discipline for one inbound message: durable
// append, then cache push, then fan-out. A subscriber can never observe a
// message that is not yet durably recorded.
func (c *Client) relay(text string) error {
	ok, err := c.store.IsParticipant(c.roomKey, c.userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d is not in room %s", c.userID, c.roomKey)
	}

	msg, err := c.store.AppendMessage(c.roomKey, c.userID, text)
	if err != nil {
		return err
	}

	entry := cache.Entry{
		Content:    msg.Content,
		SenderID:   c.userID,
		SenderName: c.username,
	}
	if err := c.cache.Push(context.Background(), c.roomKey, entry); err != nil {
		c.logger.Warn().Err(err).Msg("cache push failed")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	c.hub.Broadcast(c.roomKey, payload)
	metrics.MessagesRelayed.Inc()
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// trySend queues a payload without blocking. False means the client's
// buffer is full.
func (c *Client) trySend(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// drop force-closes the underlying connection; the read pump then runs
// the normal cleanup path.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
	}
}
