package message

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/chatline/chatline/internal/database"
)

// Repository handles message persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new message.
func (r *Repository) Create(ctx context.Context, senderID, recipientID uuid.UUID, content string, images []string) (*Message, error) {
	if images == nil {
		images = []string{}
	}

	dbMessage := &database.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Images:      images,
	}

	_, err := r.db.NewInsert().
		Model(dbMessage).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return mapDBMessageToModel(dbMessage), nil
}

// Conversation returns both directions of the exchange between two
// users, newest first.
func (r *Repository) Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]Message, error) {
	var dbMessages []database.Message
	err := r.db.NewSelect().
		Model(&dbMessages).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("sender_id = ?", userID).Where("recipient_id = ?", otherID)
				}).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("sender_id = ?", otherID).Where("recipient_id = ?", userID)
				})
		}).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	messages := make([]Message, 0, len(dbMessages))
	for i := range dbMessages {
		messages = append(messages, *mapDBMessageToModel(&dbMessages[i]))
	}

	return messages, nil
}

// mapDBMessageToModel converts database model to domain model
func mapDBMessageToModel(dbm *database.Message) *Message {
	return &Message{
		ID:          dbm.ID,
		SenderID:    dbm.SenderID,
		RecipientID: dbm.RecipientID,
		Content:     dbm.Content,
		Images:      dbm.Images,
		CreatedAt:   dbm.CreatedAt,
	}
}
