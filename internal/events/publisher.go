package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	DefaultStream = "user.events"
)

// Publisher notifica eventos de dominio. Quien publica no espera entrega.
type Publisher interface {
	Publish(ctx context.Context, eventName string, payload any) error
}

// Event es el sobre JSON comun a todos los transportes.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type UserCreatedPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// UserChangedPayload se usa para user.updated y user.deleted.
type UserChangedPayload struct {
	UserID string `json:"userId"`
}

func NewEvent(eventName string, payload any) Event {
	return Event{
		Type:      eventName,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
}

func encode(eventName string, payload any) ([]byte, error) {
	body, err := json.Marshal(NewEvent(eventName, payload))
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", eventName, err)
	}
	return body, nil
}

// NopPublisher descarta todos los eventos.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
