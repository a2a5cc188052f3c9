package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	EventNewNotification      = "newNotification"
	EventBookingStatusChanged = "bookingStatusChanged"
	EventRegisterUser         = "registerUser"
	EventRegistered           = "registered"
	EventError                = "error"
)

var ErrNotConnected = errors.New("recipient is not connected")

// Envelope carries one push between instances sharing a broker.
type Envelope struct {
	UserID int64           `json:"user_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Broker fans pushes out to every instance. Subscribe blocks until ctx is done.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, handler func(Envelope)) error
	Close() error
}

type Hub struct {
	registry Registry
	broker   Broker
	logger   *zap.Logger
}

type Option func(*Hub)

func WithBroker(b Broker) Option {
	return func(h *Hub) {
		h.broker = b
	}
}

func NewHub(registry Registry, logger *zap.Logger, opts ...Option) *Hub {
	h := &Hub{registry: registry, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Registry() Registry {
	return h.registry
}

// Push delivers event to userID. Without a broker it reports ErrNotConnected
// when the user has no live connection on this instance.
func (h *Hub) Push(ctx context.Context, userID int64, event string, payload any) error {
	if h.broker == nil {
		return h.deliverLocal(userID, event, payload)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	if err := h.broker.Publish(ctx, Envelope{UserID: userID, Event: event, Data: data}); err != nil {
		return fmt.Errorf("publish push: %w", err)
	}
	return nil
}

// Run relays broker envelopes to local connections until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.broker == nil {
		<-ctx.Done()
		return nil
	}
	return h.broker.Subscribe(ctx, func(env Envelope) {
		err := h.deliverLocal(env.UserID, env.Event, env.Data)
		if err != nil && !errors.Is(err, ErrNotConnected) {
			h.logger.Warn("relay push failed", zap.Int64("user_id", env.UserID), zap.String("event", env.Event), zap.Error(err))
		}
	})
}

func (h *Hub) deliverLocal(userID int64, event string, payload any) error {
	conn, ok := h.registry.Lookup(userID)
	if !ok {
		return ErrNotConnected
	}
	return conn.Send(event, payload)
}
