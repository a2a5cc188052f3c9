package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var (
	ErrConnClosed      = errors.New("connection closed")
	ErrSendBufferFull  = errors.New("send buffer full")
	errMissingIdentity = errors.New("a valid access token is required")
)

// TokenValidator resolves a bearer token to the caller identity.
type TokenValidator interface {
	Principal(token string) (domain.Principal, error)
}

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type inbound struct {
	Event string `json:"event"`
	Token string `json:"token"`
}

type HandlerOptions struct {
	SendBuffer  int
	CheckOrigin func(r *http.Request) bool
}

// Handler upgrades HTTP requests to WebSocket connections and registers them
// with the hub once the client has proven its identity.
type Handler struct {
	hub        *Hub
	tokens     TokenValidator
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *zap.Logger
}

func NewHandler(hub *Hub, tokens TokenValidator, logger *zap.Logger, opts HandlerOptions) *Handler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 16
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		sendBuffer: opts.SendBuffer,
		logger:     logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		principal domain.Principal
		known     bool
	)
	if token := tokenFromRequest(r); token != "" {
		p, err := h.tokens.Principal(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}
		principal, known = p, true
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}

	go c.writePump()

	if known {
		h.register(c, principal)
	}
	h.readPump(c)
}

func (h *Handler) register(c *client, p domain.Principal) {
	h.hub.Registry().Register(p.ID, c)
	h.logger.Debug("websocket registered", zap.String("conn_id", c.id), zap.Int64("user_id", p.ID))
	_ = c.Send(EventRegistered, fields{"userId": p.ID, "role": p.Role})
}

func (h *Handler) readPump(c *client) {
	defer func() {
		removed := h.hub.Registry().Unregister(c)
		c.close()
		h.logger.Debug("websocket closed", zap.String("conn_id", c.id), zap.Int64s("user_ids", removed))
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = c.Send(EventError, fields{"message": "malformed message"})
			continue
		}

		switch msg.Event {
		case EventRegisterUser:
			p, err := h.tokens.Principal(msg.Token)
			if err != nil || msg.Token == "" {
				_ = c.Send(EventError, fields{"message": errMissingIdentity.Error()})
				continue
			}
			h.register(c, p)
		default:
			_ = c.Send(EventError, fields{"message": "unknown event " + msg.Event})
		}
	}
}

type fields map[string]any

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

type client struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) ID() string { return c.id }

// Send queues a frame without blocking. A full queue drops the frame.
func (c *client) Send(event string, payload any) error {
	data, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

var _ Conn = (*client)(nil)
