package message

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"senderId"`
	RecipientID uuid.UUID `json:"recipientId"`
	Content     string    `json:"content"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}
