package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chatline/chatline/internal/user"
)

// SessionClaims is the identity carried inside a bearer token. It is
// never persisted; the guard middleware trusts the signature without
// re-reading the user row.
type SessionClaims struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	IssuedAt       time.Time `json:"issuedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(u *user.User, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*SessionClaims, error)
}

// UserStore is the persistence collaborator the auth service depends on.
// *user.Repository satisfies it; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*user.User, error)
	SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiry time.Time) error
	RedeemResetToken(ctx context.Context, tokenHash, newPasswordHash string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, username, email, profilePicture string) (*user.User, error)
}

// Mailer is the outbound-notification collaborator.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
}
