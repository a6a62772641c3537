package entities

import (
	"github.com/google/uuid"
)

type Shop struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	// NameKey/AddressKey hold the normalized lowercase pair so that the same
	// shop extracted with different casing resolves to one row.
	NameKey    string `gorm:"uniqueIndex:idx_shops_name_address;not null" json:"-"`
	AddressKey string `gorm:"uniqueIndex:idx_shops_name_address" json:"-"`

	Receipts []*Receipt `gorm:"foreignKey:ShopID"`
	Timestamp
}
