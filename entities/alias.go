package entities

import (
	"github.com/google/uuid"
)

// Alias maps one observed raw receipt text to a canonical product. ShopID and
// UserID narrow the scope: both set = a single user's correction at one shop,
// only ShopID = shop-wide, neither = global.
type Alias struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	RawName string    `gorm:"not null" json:"raw_name"`
	// RawNameKey is the lowercased raw name; unique together with ProductID.
	RawNameKey        string     `gorm:"uniqueIndex:idx_aliases_raw_product;not null" json:"-"`
	ProductID         uuid.UUID  `gorm:"uniqueIndex:idx_aliases_raw_product" json:"product_id"`
	ShopID            *uuid.UUID `json:"shop_id,omitempty"`
	UserID            *uuid.UUID `json:"user_id,omitempty"`
	Locale            string     `json:"locale,omitempty"`
	ConfirmationCount int        `gorm:"default:1" json:"confirmation_count"`

	Product *Product `gorm:"foreignKey:ProductID"`
	Shop    *Shop    `gorm:"foreignKey:ShopID"`
	User    *User    `gorm:"foreignKey:UserID"`
	Timestamp
}
