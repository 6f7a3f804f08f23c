// Package notification delivers "payment status changed" events to the
// wider platform (account updates, push notifications). Delivery is
// fire-and-forget: a failed send never rolls back a ledger mutation.
package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"premscales/internal/models"

	"github.com/redis/go-redis/v9"
)

// Sink receives status-change events.
type Sink interface {
	PaymentStatusChanged(ctx context.Context, p *models.Payment, previousStatus string) error
}

// LogSink logs status changes. It is the default sink in environments
// without a message bus.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) PaymentStatusChanged(_ context.Context, p *models.Payment, previousStatus string) error {
	log.Printf("payment %s: %s -> %s", p.Reference, previousStatus, p.Status)
	return nil
}

// RedisSink publishes status changes on a Redis channel consumed by the
// notification workers.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

type statusChangedEvent struct {
	Reference      string    `json:"reference"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (s *RedisSink) PaymentStatusChanged(ctx context.Context, p *models.Payment, previousStatus string) error {
	payload, err := json.Marshal(statusChangedEvent{
		Reference:      p.Reference,
		SenderID:       p.SenderID,
		ReceiverID:     p.ReceiverID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         p.Status,
		PreviousStatus: previousStatus,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}
