package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReceiptStatusPending    = "pending"
	ReceiptStatusProcessing = "processing"
	ReceiptStatusCompleted  = "completed"
	ReceiptStatusToVerify   = "to_verify"
	ReceiptStatusError      = "error"
)

type Receipt struct {
	ID     uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID uuid.UUID  `json:"user_id"`
	ShopID *uuid.UUID `json:"shop_id,omitempty"`
	// Status is the concurrency-control field; the pending->processing
	// transition is claimed with a single conditional update.
	Status        string           `gorm:"default:pending;index" json:"status"`
	ImageURL      string           `json:"image_url"`
	ImageHash     string           `gorm:"index" json:"-"`
	DeclaredTotal *decimal.Decimal `gorm:"type:decimal(20,4)" json:"declared_total,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	PurchasedAt   *time.Time       `json:"purchased_at,omitempty"`
	ErrorMessage  string           `json:"error_message,omitempty"`

	User      *User       `gorm:"foreignKey:UserID"`
	Shop      *Shop       `gorm:"foreignKey:ShopID"`
	LineItems []*LineItem `gorm:"foreignKey:ReceiptID"`
	Timestamp
}
