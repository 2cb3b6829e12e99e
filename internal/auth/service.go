package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatline/chatline/internal/logging"
	"github.com/chatline/chatline/internal/user"
)

// Service handles the credential and session lifecycle: signup, login,
// profile updates and the password reset flow. It holds no mutable state
// beyond configuration fixed at startup, so it is safe for concurrent use.
type Service struct {
	users          UserStore
	tokens         TokenService
	hasher         *PasswordHasher
	mailer         Mailer
	logger         *logging.Logger
	tokenTTL       time.Duration
	resetTTL       time.Duration
	frontendURL    string
	exposeResetURL bool
	isDevelopment  bool
}

func NewService(
	users UserStore,
	tokens TokenService,
	hasher *PasswordHasher,
	mailer Mailer,
	logger *logging.Logger,
	tokenTTL time.Duration,
	resetTTL time.Duration,
	frontendURL string,
	exposeResetURL bool,
	isDevelopment bool,
) *Service {
	return &Service{
		users:          users,
		tokens:         tokens,
		hasher:         hasher,
		mailer:         mailer,
		logger:         logger,
		tokenTTL:       tokenTTL,
		resetTTL:       resetTTL,
		frontendURL:    frontendURL,
		exposeResetURL: exposeResetURL,
		isDevelopment:  isDevelopment,
	}
}

// Signup validates input, creates the account and issues a session token.
// Uniqueness violations surface as ErrDuplicateUser.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*user.User, string, error) {
	if err := ValidateSignup(username, email, password); err != nil {
		return nil, "", err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, username, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			return nil, "", ErrDuplicateUser
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.CreateToken(newUser, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return newUser, token, nil
}

// Login authenticates by email or username. Unknown identifiers and
// wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, identifier, password string) (*user.User, string, error) {
	if identifier == "" || password == "" {
		return nil, "", ErrAllFieldsRequired
	}

	existing, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existing.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existing, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return existing, token, nil
}

// RequestPasswordReset initiates the reset flow. It never reveals whether
// the email exists: every failure short of a developer error is swallowed
// after logging. The returned URL is empty unless the dev-only
// expose-reset-url configuration is on; it must never be non-empty in
// production.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for password reset", "error", err)
		}
		return "", nil
	}

	token, err := generateResetToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return "", nil
	}

	// Only the hash is persisted; the plaintext leaves through the email.
	// Hash and expiry are written in one update so they are never split,
	// and a new request supersedes any outstanding credential.
	expiry := time.Now().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, existing.ID, hashResetToken(token), expiry); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return "", nil
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)

	// Send in a goroutine so a slow SMTP server doesn't hold the request.
	go func() {
		emailCtx := context.Background()
		if err := s.mailer.SendPasswordResetEmail(emailCtx, email, resetURL); err != nil {
			s.logger.Warn("failed to send password reset email", "email", email, "error", err)
		}
	}()

	if s.exposeResetURL && s.isDevelopment {
		return resetURL, nil
	}

	return "", nil
}

// ResetPassword redeems a reset credential. The lookup, password update
// and credential invalidation are a single atomic find-and-update, so a
// credential can be redeemed at most once even under concurrent attempts.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.RedeemResetToken(ctx, hashResetToken(token), passwordHash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Wrong and expired tokens are deliberately the same error.
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}

	return nil
}

// UpdateProfile updates the mutable identity fields. Tokens issued before
// the update keep their old claims until natural expiry.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, username, email, profilePicture string) (*user.User, error) {
	if email != "" && !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmailFormat
	}

	updated, err := s.users.UpdateProfile(ctx, userID, username, email, profilePicture)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		if errors.Is(err, user.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return updated, nil
}

// generateResetToken creates a 256-bit random credential. Only its hash
// is ever stored.
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashResetToken is the one-way hash applied before a reset credential
// touches storage.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
