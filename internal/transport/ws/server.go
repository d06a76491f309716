package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/signaling-relay/internal/domain"
	"github.com/cwrk-planet/signaling-relay/internal/registry"

	"github.com/gorilla/websocket"
)

type Options struct {
	PingPeriod     time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (o Options) withDefaults() Options {
	if o.PingPeriod <= 0 {
		o.PingPeriod = 30 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 * 1024 // enough for SDP with many candidates
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

// Server is the signaling router: one reader goroutine per participant,
// frames routed either to a single targetId or to the rest of the room.
type Server struct {
	upgrader websocket.Upgrader
	reg      registry.Registry
	opts     Options
	now      func() time.Time
	log      *slog.Logger
}

func NewServer(reg registry.Registry, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		reg:  reg,
		opts: opts.withDefaults(),
		now:  time.Now,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// WithClock replaces the source of relay timestamps.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// WS endpoint: GET /ws?roomId=...&userId=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "Expected WebSocket connection", http.StatusUpgradeRequired)
		return
	}

	q := r.URL.Query()
	// ids are used exactly as sent; only absence is rejected
	roomID := q.Get("roomId")
	userID := q.Get("userId")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "err", err)
		return
	}

	if err := validateIdentity(roomID, userID); err != nil {
		s.log.Warn("ws rejected", "room", roomID, "user", userID, "err", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""),
			time.Now().Add(s.opts.WriteWait))
		_ = conn.Close()
		return
	}

	c := newWsConn(conn, roomID, userID, s.opts.SendBuffer)
	s.onOpen(c)

	go c.writeLoop(s.opts.PingPeriod, s.opts.WriteWait)
	s.readLoop(c)

	s.onClose(c)
}

func validateIdentity(roomID, userID string) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}
	if userID == "" {
		return domain.ErrMissingUserID
	}
	return nil
}

func (s *Server) onOpen(c *wsConn) {
	s.reg.Join(c.roomID, c)
	s.reg.Bind(c.userID, c)
	s.reg.Broadcast(c.roomID, c, domain.PresenceEvent{
		Type:      domain.TypeUserConnected,
		UserID:    c.userID,
		Timestamp: s.timestamp(),
	})
	s.log.Info("ws user connected", "room", c.roomID, "user", c.userID, "conn", c.id)
}

func (s *Server) onClose(c *wsConn) {
	s.reg.Leave(c.roomID, c)
	s.reg.Unbind(c.userID, c)
	s.reg.Broadcast(c.roomID, c, domain.PresenceEvent{
		Type:      domain.TypeUserDisconnected,
		UserID:    c.userID,
		Timestamp: s.timestamp(),
	})

	if err := c.Close(); err != nil {
		s.log.Debug("ws close failed", "room", c.roomID, "user", c.userID, "err", err)
	}
	s.log.Info("ws user disconnected", "room", c.roomID, "user", c.userID, "conn", c.id)
}

func (s *Server) readLoop(c *wsConn) {
	pongWait := 2 * s.opts.PingPeriod

	c.conn.SetReadLimit(s.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.log.Warn("ws transport error", "room", c.roomID, "user", c.userID, "err", err)
			}
			return
		}
		s.dispatch(c, data)
	}
}

func (s *Server) dispatch(c *wsConn, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warn("ws malformed frame dropped", "room", c.roomID, "user", c.userID, "err", err)
		return
	}

	switch {
	case domain.IsUnicast(env.Type):
		if err := s.relay(c, env.TargetID, data); err != nil {
			s.log.Debug("ws signal dropped",
				"room", c.roomID, "user", c.userID, "type", env.Type, "target", env.TargetID, "err", err)
		}

	case env.Type == domain.TypeChatMessage:
		s.reg.Broadcast(c.roomID, c, domain.ChatMessage{
			Type:      domain.TypeChatMessage,
			SenderID:  c.userID,
			Message:   env.Message,
			Timestamp: s.timestamp(),
		})

	case env.Type == domain.TypeScreenShareStart, env.Type == domain.TypeScreenShareStop:
		s.reg.Broadcast(c.roomID, c, domain.ScreenShareEvent{
			Type:      env.Type,
			UserID:    c.userID,
			Timestamp: s.timestamp(),
		})

	case env.Type == domain.TypeConnectionQuality:
		s.log.Info("ws connection quality",
			"room", c.roomID, "user", c.userID, "quality", string(env.Quality))

	default:
		s.log.Warn("ws unrecognized message type", "room", c.roomID, "user", c.userID, "type", env.Type)
	}
}

// relay forwards a signaling frame to the connection bound to targetID,
// stamping senderId with the sender's own userId.
func (s *Server) relay(from *wsConn, targetID string, data []byte) error {
	if targetID == "" {
		return domain.ErrMissingTarget
	}
	target, ok := s.reg.Lookup(targetID)
	if !ok || !target.IsOpen() {
		return domain.ErrTargetOffline
	}

	out, err := withSender(data, from.userID)
	if err != nil {
		return err
	}
	if err := target.SendRaw(out); err != nil {
		return fmt.Errorf("send to %s: %w", targetID, err)
	}
	return nil
}

func withSender(data []byte, senderID string) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode signal: %w", err)
	}
	sender, err := json.Marshal(senderID)
	if err != nil {
		return nil, err
	}
	fields["senderId"] = sender
	return json.Marshal(fields)
}

func (s *Server) timestamp() string {
	return domain.Timestamp(s.now())
}
