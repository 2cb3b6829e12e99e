package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chatline/chatline/internal/user"
)

// jwtClaims is the wire format of a session token signed with HS256.
type jwtClaims struct {
	jwt.RegisteredClaims
	UserID         string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// JWTService signs and verifies session tokens with HMAC-SHA256. The
// signing secret is process-wide configuration supplied at startup.
type JWTService struct {
	secret []byte
}

func NewJWTService(secret []byte) *JWTService {
	return &JWTService{secret: secret}
}

// CreateToken issues a signed token whose expiry is issuedAt + duration.
func (s *JWTService) CreateToken(u *user.User, duration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
		UserID:         u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	})

	return token.SignedString(s.secret)
}

// VerifyToken validates the signature and expiry and returns the claims.
// Tokens without an id claim are rejected even when the signature is
// valid, so malformed or legacy tokens cannot authenticate.
func (s *JWTService) VerifyToken(tokenStr string) (*SessionClaims, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return &SessionClaims{
		ID:             userID,
		Username:       claims.Username,
		Email:          claims.Email,
		ProfilePicture: claims.ProfilePicture,
		CreatedAt:      claims.CreatedAt,
		IssuedAt:       claims.IssuedAt.Time,
		ExpiresAt:      claims.ExpiresAt.Time,
	}, nil
}
