package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chatline/chatline/internal/logging"
	"github.com/chatline/chatline/internal/user"
)

// memoryUserStore is an in-memory UserStore with the same duplicate and
// redemption semantics as the Postgres repository.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (s *memoryUserStore) Create(_ context.Context, username, email, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) || u.Username == username {
			return nil, user.ErrDuplicate
		}
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u

	clone := *u
	return &clone, nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memoryUserStore) GetByIdentifier(_ context.Context, identifier string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, identifier) || u.Username == identifier {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memoryUserStore) SetResetToken(_ context.Context, userID uuid.UUID, tokenHash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiry = &expiry
	u.UpdatedAt = time.Now()
	return nil
}

func (s *memoryUserStore) RedeemResetToken(_ context.Context, tokenHash, newPasswordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetTokenHash == nil || u.ResetTokenExpiry == nil {
			continue
		}
		if *u.ResetTokenHash != tokenHash || !u.ResetTokenExpiry.After(time.Now()) {
			continue
		}
		u.PasswordHash = newPasswordHash
		u.ResetTokenHash = nil
		u.ResetTokenExpiry = nil
		u.UpdatedAt = time.Now()
		return nil
	}
	return user.ErrNotFound
}

func (s *memoryUserStore) UpdateProfile(_ context.Context, userID uuid.UUID, username, email, profilePicture string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, user.ErrNotFound
	}

	for id, other := range s.users {
		if id == userID {
			continue
		}
		if (username != "" && other.Username == username) ||
			(email != "" && strings.EqualFold(other.Email, email)) {
			return nil, user.ErrDuplicate
		}
	}

	if username != "" {
		u.Username = username
	}
	if email != "" {
		u.Email = email
	}
	if profilePicture != "" {
		u.ProfilePicture = profilePicture
	}
	u.UpdatedAt = time.Now()

	clone := *u
	return &clone, nil
}

// recordingMailer captures reset URLs instead of talking to SMTP. Sends
// happen on a goroutine, so tests wait on the channel.
type recordingMailer struct {
	sent chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan string, 8)}
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, _, resetURL string) error {
	m.sent <- resetURL
	return nil
}

func (m *recordingMailer) waitForEmail(t *testing.T) string {
	t.Helper()
	select {
	case url := <-m.sent:
		return url
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reset email")
		return ""
	}
}

func (m *recordingMailer) assertNoEmail(t *testing.T) {
	t.Helper()
	select {
	case url := <-m.sent:
		t.Fatalf("unexpected reset email with URL %q", url)
	case <-time.After(100 * time.Millisecond):
	}
}

// stubThrottle replaces the redis-backed cooldown in handler tests.
type stubThrottle struct {
	mu         sync.Mutex
	onCooldown bool
	setCalls   int
}

func (s *stubThrottle) CheckEmailCooldown(_ context.Context, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onCooldown, nil
}

func (s *stubThrottle) SetEmailCooldown(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	return nil
}

func (s *stubThrottle) cooldownsSet() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls
}

type serviceOptions struct {
	resetTTL       time.Duration
	exposeResetURL bool
	isDevelopment  bool
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		resetTTL:       15 * time.Minute,
		exposeResetURL: true,
		isDevelopment:  true,
	}
}

const testFrontendURL = "http://localhost:3000"

func newTestService(store UserStore, mailer Mailer, opts serviceOptions) *Service {
	return NewService(
		store,
		NewJWTService([]byte("test-signing-secret")),
		NewPasswordHasher(),
		mailer,
		logging.NewLogger(true),
		7*24*time.Hour,
		opts.resetTTL,
		testFrontendURL,
		opts.exposeResetURL,
		opts.isDevelopment,
	)
}
