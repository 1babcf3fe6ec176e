package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// Promo is a discount code definition with a usage budget. CurrentUses is
// only ever mutated through the guarded increment in the promos repository.
type Promo struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string                  `gorm:"column:code;not null;uniqueIndex:idx_promos_code"`
	DiscountType   enums.PromoDiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue  int                     `gorm:"column:discount_value;not null"`
	Scope          enums.PromoScope        `gorm:"column:scope;type:text;not null;default:'all'"`
	StartsAt       *time.Time              `gorm:"column:starts_at"`
	ExpiresAt      *time.Time              `gorm:"column:expires_at"`
	MaxUses        *int                    `gorm:"column:max_uses"`
	MaxUsesPerUser int                     `gorm:"column:max_uses_per_user;not null;default:1"`
	CurrentUses    int                     `gorm:"column:current_uses;not null;default:0"`
	MinOrderCents  int                     `gorm:"column:min_order_cents;not null;default:0"`
	Active         bool                    `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
