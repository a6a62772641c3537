package entities

import (
	"github.com/google/uuid"
)

type Product struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name string    `gorm:"not null" json:"name"`
	// NameKey is the lowercased name; its unique index is the backstop against
	// two workers creating the same product concurrently.
	NameKey    string     `gorm:"uniqueIndex;not null" json:"-"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID"`
	Aliases  []*Alias  `gorm:"foreignKey:ProductID"`
	Timestamp
}
