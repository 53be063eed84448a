package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sandlot/internal/session"
	"sandlot/internal/store"
)

var (
	wsConnectionsActive = expvar.NewInt("ws_connections_active")
	wsConnectionsTotal  = expvar.NewInt("ws_connections_total")
)

// Server upgrades authenticated players onto the realtime game stream.
// Commands come in as small JSON messages; everything going out is either
// a session event or an error frame for the offending connection.
type Server struct {
	store    store.Store
	registry *session.Registry
	upgrader websocket.Upgrader
}

func NewServer(st store.Store, reg *session.Registry) *Server {
	return &Server{
		store:    st,
		registry: reg,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// client is one socket. send is the single writer channel; every outbound
// frame funnels through it.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	user   *store.User
	gameID string
	buffer *session.EventBuffer
	events chan session.Event
}

// HandleWS authenticates, upgrades, and serves the connection until the
// peer goes away. Authentication failures are plain HTTP; the socket only
// exists for known users.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	wsConnectionsActive.Add(1)
	wsConnectionsTotal.Add(1)
	defer wsConnectionsActive.Add(-1)

	c := &client{conn: conn, send: make(chan []byte, 32), user: user}
	go s.writeLoop(c)
	s.readLoop(r.Context(), c)
}

// authenticate resolves the bearer token from the Authorization header or
// the token query parameter, for clients that cannot set headers.
func (s *Server) authenticate(r *http.Request) (*store.User, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, errors.New("missing token")
	}
	return s.store.GetUserByTokenHash(r.Context(), store.HashToken(token))
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	defer func() {
		if c.gameID != "" {
			// the request context dies with this handler
			s.registry.PlayerDisconnected(context.Background(), c.gameID, c.user.ID)
		}
		if c.buffer != nil {
			c.buffer.Unsubscribe(c.events)
		}
		safeClose(c.send)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendError(c, "", session.ErrValidation.Error(), "malformed message")
			continue
		}

		switch msg.Type {
		case MsgJoinRoom:
			s.handleJoinRoom(ctx, c, msg.GameID, msg.AfterSeq)
		case MsgRoll:
			s.handleRoll(ctx, c, msg.GameID)
		case MsgForfeit:
			s.handleForfeit(ctx, c, msg.GameID)
		default:
			s.sendError(c, msg.GameID, session.ErrValidation.Error(), "unknown message type")
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// handleJoinRoom binds the connection to one game for its lifetime.
// Joining the bound game again just resends the snapshot.
func (s *Server) handleJoinRoom(ctx context.Context, c *client, gameID string, afterSeq int64) {
	if gameID == "" {
		s.sendError(c, "", session.ErrValidation.Error(), "game_id required")
		return
	}
	if c.gameID != "" && c.gameID != gameID {
		s.sendError(c, gameID, session.ErrValidation.Error(), "connection already bound to a game")
		return
	}

	if c.gameID == "" {
		// membership check before anything subscribes
		if _, err := s.registry.Get(ctx, gameID, c.user.ID); err != nil {
			s.sendRegistryError(c, gameID, err)
			return
		}
		c.gameID = gameID
		// presence fires before the subscription exists, so a socket never
		// hears its own arrival
		s.registry.PlayerConnected(ctx, gameID, c.user.ID)
		if buf := s.registry.Events(gameID); buf != nil {
			c.buffer = buf
			c.events = buf.Subscribe()
			go s.pumpEvents(c)
		}
		log.Debug().Str("game_id", gameID).Str("user_id", c.user.ID).Msg("socket joined game")
	}

	if c.buffer != nil && afterSeq > 0 {
		for _, ev := range c.buffer.ReplayAfter(afterSeq) {
			s.sendEvent(c, ev)
		}
	}

	// snapshot taken after subscribing, so nothing falls in the gap
	snap, err := s.registry.Get(ctx, gameID, c.user.ID)
	if err != nil {
		s.sendRegistryError(c, gameID, err)
		return
	}
	s.sendEvent(c, session.Event{
		Type:   session.EventState,
		GameID: gameID,
		TS:     time.Now().UTC(),
		Data:   snap,
	})
}

func (s *Server) handleRoll(ctx context.Context, c *client, gameID string) {
	gameID, ok := s.boundGame(c, gameID)
	if !ok {
		return
	}
	if _, err := s.registry.Roll(ctx, gameID, c.user.ID); err != nil {
		s.sendRegistryError(c, gameID, err)
	}
	// the roll-result event reaches this connection via its subscription
}

func (s *Server) handleForfeit(ctx context.Context, c *client, gameID string) {
	gameID, ok := s.boundGame(c, gameID)
	if !ok {
		return
	}
	if _, err := s.registry.Forfeit(ctx, gameID, c.user.ID, store.ReasonForfeit); err != nil {
		s.sendRegistryError(c, gameID, err)
	}
}

// boundGame resolves which game a command addresses: the bound one, with
// an explicit game_id allowed only when it agrees.
func (s *Server) boundGame(c *client, gameID string) (string, bool) {
	if c.gameID == "" {
		s.sendError(c, gameID, session.ErrValidation.Error(), "join a game first")
		return "", false
	}
	if gameID != "" && gameID != c.gameID {
		s.sendError(c, gameID, session.ErrValidation.Error(), "connection bound to another game")
		return "", false
	}
	return c.gameID, true
}

func (s *Server) pumpEvents(c *client) {
	for ev := range c.events {
		buf, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Str("game_id", ev.GameID).Msg("encode event")
			continue
		}
		safeSend(c.send, buf)
	}
}

func (s *Server) sendEvent(c *client, ev session.Event) {
	buf, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("game_id", ev.GameID).Msg("encode event")
		return
	}
	safeSend(c.send, buf)
}

func (s *Server) sendError(c *client, gameID, code, message string) {
	buf, err := json.Marshal(ErrorFrame{Type: "error", Code: code, Message: message, GameID: gameID})
	if err != nil {
		return
	}
	safeSend(c.send, buf)
}

// sendRegistryError translates a registry failure into an error frame.
// Internal failures keep their detail out of the wire.
func (s *Server) sendRegistryError(c *client, gameID string, err error) {
	code := session.Code(err)
	message := err.Error()
	if code == session.ErrInternal.Error() {
		message = "internal error"
	}
	s.sendError(c, gameID, code, message)
}

func safeClose(ch chan []byte) {
	defer func() { _ = recover() }()
	close(ch)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() { _ = recover() }()
	ch <- msg
}
