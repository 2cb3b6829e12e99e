package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/chatline/chatline/internal/user"
)

// PasetoService is the alternative token backend using PASETO v4.local
// (symmetric encryption with XChaCha20-Poly1305).
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewPasetoService(symmetricKey []byte) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
	}, nil
}

// CreateToken generates a new PASETO v4.local token with the session claims.
func (s *PasetoService) CreateToken(u *user.User, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetString("id", u.ID.String())
	token.SetString("username", u.Username)
	token.SetString("email", u.Email)
	token.SetString("profilePicture", u.ProfilePicture)
	token.SetString("createdAt", u.CreatedAt.Format(time.RFC3339Nano))

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken validates a PASETO v4.local token and returns the claims.
func (s *PasetoService) VerifyToken(tokenStr string) (*SessionClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	// A token without an identity is useless regardless of a valid MAC.
	idStr, err := token.GetString("id")
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(idStr)
	if err != nil || userID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	username, _ := token.GetString("username")
	email, _ := token.GetString("email")
	profilePicture, _ := token.GetString("profilePicture")

	var createdAt time.Time
	if createdAtStr, err := token.GetString("createdAt"); err == nil {
		createdAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &SessionClaims{
		ID:             userID,
		Username:       username,
		Email:          email,
		ProfilePicture: profilePicture,
		CreatedAt:      createdAt,
		IssuedAt:       issuedAt,
		ExpiresAt:      expiresAt,
	}, nil
}
