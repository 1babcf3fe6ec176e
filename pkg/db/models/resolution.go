package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// Resolution is a customer claim tied to an order. A resolution in
// awaiting_refund moves to completed when the matching charge.refunded event
// lands.
type Resolution struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	Status      enums.ResolutionStatus `gorm:"column:status;type:text;not null;default:'open'"`
	Note        *string                `gorm:"column:note"`
	CompletedAt *time.Time             `gorm:"column:completed_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
