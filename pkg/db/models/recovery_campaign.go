package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// RecoveryCampaign is a scheduled win-back touch for a customer who abandoned
// a cart. A completed checkout cancels pending campaigns and may convert one.
type RecoveryCampaign struct {
	ID          uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID                    `gorm:"column:customer_id;type:uuid;not null;index"`
	Status      enums.RecoveryCampaignStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	OrderID     *uuid.UUID                   `gorm:"column:order_id;type:uuid"`
	SentAt      *time.Time                   `gorm:"column:sent_at"`
	ConvertedAt *time.Time                   `gorm:"column:converted_at"`
	CreatedAt   time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}
