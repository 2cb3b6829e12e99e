package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatline/chatline/internal/user"
)

func signupTestUser(t *testing.T, svc *Service, username, email, password string) *user.User {
	t.Helper()

	u, token, err := svc.Signup(context.Background(), username, email, password)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return u
}

// resetTokenFromURL strips the frontend prefix off a reset URL.
func resetTokenFromURL(t *testing.T, resetURL string) string {
	t.Helper()

	prefix := testFrontendURL + "/reset-password/"
	require.True(t, strings.HasPrefix(resetURL, prefix), "unexpected reset URL %q", resetURL)
	return strings.TrimPrefix(resetURL, prefix)
}

func TestSignup(t *testing.T) {
	store := newMemoryUserStore()
	mailer := newRecordingMailer()
	svc := newTestService(store, mailer, defaultServiceOptions())
	ctx := context.Background()

	created, token, err := svc.Signup(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@example.com", created.Email)

	// The plaintext never reaches storage.
	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, NewPasswordHasher().Verify("secret123", stored.PasswordHash))

	// The issued token identifies the new account.
	claims, err := NewJWTService([]byte("test-signing-secret")).VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.ID)
	assert.Equal(t, "alice", claims.Username)
}

func TestSignupDuplicate(t *testing.T) {
	store := newMemoryUserStore()
	svc := newTestService(store, newRecordingMailer(), defaultServiceOptions())
	ctx := context.Background()

	signupTestUser(t, svc, "alice", "alice@example.com", "secret123")

	_, _, err := svc.Signup(ctx, "someone", "alice@example.com", "secret123")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, _, err = svc.Signup(ctx, "alice", "other@example.com", "secret123")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(newMemoryUserStore(), newRecordingMailer(), defaultServiceOptions())
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "", "alice@example.com", "secret123")
	assert.ErrorIs(t, err, ErrAllFieldsRequired)

	_, _, err = svc.Signup(ctx, "alice", "not-an-email", "secret123")
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)

	_, _, err = svc.Signup(ctx, "alice", "alice@example.com", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	store := newMemoryUserStore()
	svc := newTestService(store, newRecordingMailer(), defaultServiceOptions())
	ctx := context.Background()

	created := signupTestUser(t, svc, "alice", "alice@example.com", "secret123")

	t.Run("by email", func(t *testing.T) {
		u, token, err := svc.Login(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("by username", func(t *testing.T) {
		u, _, err := svc.Login(ctx, "alice", "secret123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "", "secret123")
		assert.ErrorIs(t, err, ErrAllFieldsRequired)

		_, _, err = svc.Login(ctx, "alice", "")
		assert.ErrorIs(t, err, ErrAllFieldsRequired)
	})

	// Unknown identifier and wrong password are indistinguishable so the
	// endpoint cannot be used to probe for accounts.
	t.Run("uniform failure", func(t *testing.T) {
		_, _, unknownErr := svc.Login(ctx, "nobody@example.com", "secret123")
		_, _, wrongPassErr := svc.Login(ctx, "alice@example.com", "wrong-password")

		assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
		assert.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
	})
}

func TestRequestPasswordReset(t *testing.T) {
	store := newMemoryUserStore()
	mailer := newRecordingMailer()
	svc := newTestService(store, mailer, defaultServiceOptions())
	ctx := context.Background()

	created := signupTestUser(t, svc, "alice", "alice@example.com", "secret123")

	t.Run("empty email", func(t *testing.T) {
		_, err := svc.RequestPasswordReset(ctx, "")
		assert.ErrorIs(t, err, ErrEmailRequired)
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		resetURL, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Empty(t, resetURL)
		mailer.assertNoEmail(t)
	})

	t.Run("known email stores hash and mails the link", func(t *testing.T) {
		resetURL, err := svc.RequestPasswordReset(ctx, "alice@example.com")
		require.NoError(t, err)

		token := resetTokenFromURL(t, resetURL)
		assert.Equal(t, resetURL, mailer.waitForEmail(t))

		stored, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ResetTokenHash)
		require.NotNil(t, stored.ResetTokenExpiry)

		// Only the one-way hash is persisted.
		assert.NotEqual(t, token, *stored.ResetTokenHash)
		assert.Equal(t, hashResetToken(token), *stored.ResetTokenHash)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), *stored.ResetTokenExpiry, 5*time.Second)
	})
}

func TestRequestPasswordResetURLExposure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		expose        bool
		isDevelopment bool
		wantURL       bool
	}{
		{"exposed in dev", true, true, true},
		{"flag off in dev", false, true, false},
		{"flag on in prod", true, false, false},
		{"flag off in prod", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryUserStore()
			mailer := newRecordingMailer()
			opts := defaultServiceOptions()
			opts.exposeResetURL = tt.expose
			opts.isDevelopment = tt.isDevelopment
			svc := newTestService(store, mailer, opts)

			created := signupTestUser(t, svc, "alice", "alice@example.com", "secret123")

			resetURL, err := svc.RequestPasswordReset(ctx, "alice@example.com")
			require.NoError(t, err)

			if tt.wantURL {
				assert.NotEmpty(t, resetURL)
			} else {
				assert.Empty(t, resetURL)
			}

			// The flow itself runs either way.
			mailer.waitForEmail(t)
			stored, err := store.GetByID(ctx, created.ID)
			require.NoError(t, err)
			assert.NotNil(t, stored.ResetTokenHash)
		})
	}
}

func TestResetPassword(t *testing.T) {
	store := newMemoryUserStore()
	mailer := newRecordingMailer()
	svc := newTestService(store, mailer, defaultServiceOptions())
	ctx := context.Background()

	signupTestUser(t, svc, "alice", "alice@example.com", "old-password")

	resetURL, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	token := resetTokenFromURL(t, resetURL)

	require.NoError(t, svc.ResetPassword(ctx, token, "new-password"))

	// The old credential is gone and the new one works.
	_, _, err = svc.Login(ctx, "alice@example.com", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "alice@example.com", "new-password")
	assert.NoError(t, err)

	// Redemption is single-use.
	err = svc.ResetPassword(ctx, token, "another-password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPasswordRejectsBadInput(t *testing.T) {
	svc := newTestService(newMemoryUserStore(), newRecordingMailer(), defaultServiceOptions())
	ctx := context.Background()

	assert.ErrorIs(t, svc.ResetPassword(ctx, "whatever", ""), ErrPasswordRequired)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "whatever", "short"), ErrPasswordTooShort)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "no-such-token", "new-password"), ErrResetTokenInvalid)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	store := newMemoryUserStore()
	mailer := newRecordingMailer()
	opts := defaultServiceOptions()
	opts.resetTTL = -time.Minute // every credential is born expired
	svc := newTestService(store, mailer, opts)
	ctx := context.Background()

	signupTestUser(t, svc, "alice", "alice@example.com", "old-password")

	resetURL, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	token := resetTokenFromURL(t, resetURL)

	err = svc.ResetPassword(ctx, token, "new-password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	_, _, err = svc.Login(ctx, "alice@example.com", "old-password")
	assert.NoError(t, err)
}

// A second reset request invalidates the credential from the first.
func TestResetRequestSupersedesPrevious(t *testing.T) {
	store := newMemoryUserStore()
	mailer := newRecordingMailer()
	svc := newTestService(store, mailer, defaultServiceOptions())
	ctx := context.Background()

	signupTestUser(t, svc, "alice", "alice@example.com", "old-password")

	firstURL, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	secondURL, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)

	firstToken := resetTokenFromURL(t, firstURL)
	secondToken := resetTokenFromURL(t, secondURL)
	require.NotEqual(t, firstToken, secondToken)

	err = svc.ResetPassword(ctx, firstToken, "new-password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	assert.NoError(t, svc.ResetPassword(ctx, secondToken, "new-password"))
}

func TestUpdateProfile(t *testing.T) {
	store := newMemoryUserStore()
	svc := newTestService(store, newRecordingMailer(), defaultServiceOptions())
	ctx := context.Background()

	alice := signupTestUser(t, svc, "alice", "alice@example.com", "secret123")
	signupTestUser(t, svc, "bob", "bob@example.com", "secret123")

	t.Run("partial update", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, alice.ID, "", "", "https://cdn.example.com/new.png")
		require.NoError(t, err)
		assert.Equal(t, "alice", updated.Username)
		assert.Equal(t, "alice@example.com", updated.Email)
		assert.Equal(t, "https://cdn.example.com/new.png", updated.ProfilePicture)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, alice.ID, "", "not-an-email", "")
		assert.ErrorIs(t, err, ErrInvalidEmailFormat)
	})

	t.Run("taken email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, alice.ID, "", "bob@example.com", "")
		assert.ErrorIs(t, err, ErrDuplicateUser)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, uuid.New(), "ghost", "", "")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
