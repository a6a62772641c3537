package entities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	VerificationSourceAuto  = "auto"
	VerificationSourceUser  = "user"
	VerificationSourceAdmin = "admin"
)

type LineItem struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptID      uuid.UUID        `gorm:"index" json:"receipt_id"`
	ProductID      *uuid.UUID       `gorm:"index" json:"product_id,omitempty"`
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
	OriginalText   string           `json:"original_text"`
	NormalizedName string           `json:"normalized_name"`
	Quantity       decimal.Decimal  `gorm:"type:decimal(20,4)" json:"quantity"`
	UnitPrice      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_price,omitempty"`
	TotalPrice     decimal.Decimal  `gorm:"type:decimal(20,4)" json:"total_price"`
	Confidence     float64          `json:"confidence"`
	// Invariant: IsVerified=false implies VerificationSource="auto".
	IsVerified         bool   `json:"is_verified"`
	VerificationSource string `gorm:"default:auto" json:"verification_source"`

	Receipt  *Receipt  `gorm:"foreignKey:ReceiptID"`
	Product  *Product  `gorm:"foreignKey:ProductID"`
	Category *Category `gorm:"foreignKey:CategoryID"`
	Timestamp
}
