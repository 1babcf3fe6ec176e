package models

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the durable idempotency marker for gateway deliveries. The
// row is inserted before any side effect of the event is applied; the unique
// index on the gateway event id is what makes redelivery a no-op.
type WebhookEvent struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StripeEventID string    `gorm:"column:stripe_event_id;not null;uniqueIndex:idx_webhook_events_stripe_event_id"`
	EventType     string    `gorm:"column:event_type;not null"`
	ProcessedAt   time.Time `gorm:"column:processed_at;autoCreateTime"`
}
