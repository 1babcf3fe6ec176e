package stripe

import (
	"context"

	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists the durable idempotency markers for gateway events.
type Repository interface {
	// CreateEvent inserts the marker row. The unique index on the gateway
	// event id surfaces redelivery as a unique violation.
	CreateEvent(ctx context.Context, event *models.WebhookEvent) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a webhook event repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, event *models.WebhookEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
