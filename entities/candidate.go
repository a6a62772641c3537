package entities

import (
	"github.com/google/uuid"
)

const (
	CandidateStatusPending  = "pending"
	CandidateStatusApproved = "approved"
	CandidateStatusRejected = "rejected"
)

// Candidate is a not-yet-canonical product accumulating user confirmations.
// It transitions pending -> approved exactly once, when ConfirmationCount
// reaches the acceptance threshold; approved candidates are never deleted.
type Candidate struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	// RepresentativeName is the normalized lowercase grouping key.
	RepresentativeName string     `gorm:"not null;index" json:"representative_name"`
	ConfirmationCount  int        `gorm:"default:1" json:"confirmation_count"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Status             string     `gorm:"default:pending;index" json:"status"`
	ProductID          *uuid.UUID `json:"product_id,omitempty"` // set on approval

	Category *Category `gorm:"foreignKey:CategoryID"`
	Product  *Product  `gorm:"foreignKey:ProductID"`
	Timestamp
}
