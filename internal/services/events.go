package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/accountd/apiserver/internal/mq"
)

// User event types.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// UserEvent is the envelope published after a user mutation.
type UserEvent struct {
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Data      UserEventData `json:"data"`
}

// UserEventData never carries the password hash.
type UserEventData struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventPublisher delivers user events to downstream consumers.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, event UserEvent) error
}

func newUserEvent(eventType string, id int, name, email string) UserEvent {
	return UserEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data: UserEventData{
			ID:    id,
			Name:  name,
			Email: email,
		},
	}
}

// MQEventPublisher publishes user events as JSON on a message queue channel.
type MQEventPublisher struct {
	queue   *mq.MQ
	channel string
}

func NewMQEventPublisher(queue *mq.MQ, channel string) *MQEventPublisher {
	return &MQEventPublisher{queue: queue, channel: channel}
}

func (p *MQEventPublisher) PublishUserEvent(ctx context.Context, event UserEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal user event: %w", err)
	}
	attrs := map[string]string{
		"type":         event.Type,
		"content_type": "application/json",
	}
	if _, err := p.queue.Publish(ctx, p.channel, data, attrs); err != nil {
		return fmt.Errorf("publish user event: %w", err)
	}
	return nil
}

// DecodeUserEvent parses a message produced by MQEventPublisher.
func DecodeUserEvent(msg mq.Message) (UserEvent, error) {
	var event UserEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return UserEvent{}, fmt.Errorf("decode user event %s: %w", msg.ID, err)
	}
	return event, nil
}
