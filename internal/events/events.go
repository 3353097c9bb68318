package events

import (
	"context"
	"encoding/json"
	"time"
)

// ChannelMemberRegistered is the channel (queue or topic) member
// registration events are published to.
const ChannelMemberRegistered = "member.registered"

// MemberRegistered is emitted after a member row has been persisted.
// It never carries the password hash.
type MemberRegistered struct {
	MemberID      string    `json:"member_id"`
	MemberAccount string    `json:"member_account"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// Backend defines the broker-agnostic publish operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend with typed member-event publishing.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// MemberRegistered publishes a registration event and returns the message id.
func (p *Publisher) MemberRegistered(ctx context.Context, event MemberRegistered) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	attrs := map[string]string{"event": ChannelMemberRegistered}
	return p.backend.Publish(ctx, ChannelMemberRegistered, data, attrs)
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
