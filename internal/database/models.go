package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database row for a registered account. The reset token
// columns are either both set or both NULL; the redeem update clears
// them together with the password change.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Username         string     `bun:"username,notnull,unique"`
	Email            string     `bun:"email,notnull,unique"`
	PasswordHash     string     `bun:"password_hash,notnull"`
	ProfilePicture   string     `bun:"profile_picture,nullzero"`
	ResetTokenHash   *string    `bun:"reset_token_hash"`
	ResetTokenExpiry *time.Time `bun:"reset_token_expiry"`
	CreatedAt        time.Time  `bun:"created_at,notnull,default:now()"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull,default:now()"`
}

// Message is the database row for a chat message.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	SenderID    uuid.UUID `bun:"sender_id,notnull,type:uuid"`
	RecipientID uuid.UUID `bun:"recipient_id,notnull,type:uuid"`
	Content     string    `bun:"content"`
	Images      []string  `bun:"images,array"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:now()"`
}
