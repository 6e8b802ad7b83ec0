package events

import (
	"context"
	"encoding/json"
	"time"
)

// Channel names for domain events.
const (
	ChannelRecipes   = "recipe-events"
	ChannelMealPlans = "mealplan-events"
)

// Event describes a write that happened to a user-owned entity. Events are
// published fire-and-forget; nothing in this process consumes them.
type Event struct {
	Type     string    `json:"type"`
	UserID   int       `json:"user_id"`
	EntityID int       `json:"entity_id"`
	At       time.Time `json:"at"`
}

// Backend defines the broker-agnostic publish operation.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend with a stable API. A nil Publisher is valid and
// drops every event, so callers never need to branch on configuration.
type Publisher struct {
	backend Backend
}

// New constructs a Publisher for the provided backend.
func New(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// Publish emits a domain event to the named channel. Errors are returned for
// logging but callers are expected to ignore them; event delivery never
// blocks or fails a request.
func (p *Publisher) Publish(ctx context.Context, channel, eventType string, userID, entityID int) error {
	if p == nil || p.backend == nil {
		return nil
	}
	data, err := json.Marshal(Event{
		Type:     eventType,
		UserID:   userID,
		EntityID: entityID,
		At:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.backend.Publish(ctx, channel, data, map[string]string{"type": eventType})
	return err
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
