// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"time"
)

// Routing keys of published events.
const (
	TransferRequested       = "transfer.requested"
	TransferResponded       = "transfer.responded"
	TransferCancelled       = "transfer.cancelled"
	SubscriptionDeactivated = "subscription.deactivated"
)

// Publisher sends an event body under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// TransferEvent is the payload of transfer.* events.
type TransferEvent struct {
	TransferID     string    `json:"transferId"`
	SubscriptionID string    `json:"subscriptionId"`
	FromTrainerID  string    `json:"fromTrainerId"`
	ToTrainerID    string    `json:"toTrainerId"`
	SessionsCount  int       `json:"sessionsCount"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// SubscriptionEvent is the payload of subscription.* events.
type SubscriptionEvent struct {
	SubscriptionID string    `json:"subscriptionId"`
	ClientID       string    `json:"clientId"`
	SessionsUsed   int       `json:"sessionsUsed"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close()                                              {}
