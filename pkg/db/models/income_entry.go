package models

import (
	"time"

	"github.com/google/uuid"
)

// IncomeEntry is the accounting ledger row for a confirmed payment. Unique on
// order_id so replayed side effects cannot double-book income.
type IncomeEntry struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_income_entries_order_id"`
	AmountCents int       `gorm:"column:amount_cents;not null"`
	Source      string    `gorm:"column:source;type:text;not null;default:'order'"`
	Description string    `gorm:"column:description;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
