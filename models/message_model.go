package models

import (
	"time"

	"github.com/google/uuid"
)

// Message delivery states. A message only ever moves forward through them.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusSeen      = "seen"
)

type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SenderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"senderId"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index" json:"recipientId"`

	// Display fields captured at send time so a thread stays renderable even
	// if the partner profile later changes or disappears.
	SenderName     string `gorm:"size:255" json:"senderName"`
	SenderEmail    string `gorm:"size:255" json:"senderEmail"`
	RecipientName  string `gorm:"size:255" json:"recipientName"`
	RecipientEmail string `gorm:"size:255" json:"recipientEmail"`

	Subject string `gorm:"size:255" json:"subject"`
	Content string `gorm:"type:text;not null" json:"content"`

	Read   bool   `gorm:"not null;default:false" json:"read"`
	Status string `gorm:"size:20;not null;default:'sent'" json:"status"`

	Timestamp   time.Time  `gorm:"column:created_at;not null" json:"timestamp"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	SeenAt      *time.Time `json:"seenAt,omitempty"`
}

// StatusRank orders delivery states for the monotonicity check. Unknown
// states rank below everything valid.
func StatusRank(status string) int {
	switch status {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusSeen:
		return 2
	default:
		return -1
	}
}

// ValidStatus reports whether status names a known delivery state.
func ValidStatus(status string) bool {
	return StatusRank(status) >= 0
}

// CanTransition reports whether a message may move from one status to
// another. Transitions never go backward; re-applying the current status is
// allowed so the operation stays idempotent.
func CanTransition(from, to string) bool {
	fromRank, toRank := StatusRank(from), StatusRank(to)
	if fromRank < 0 || toRank < 0 {
		return false
	}
	return toRank >= fromRank
}
