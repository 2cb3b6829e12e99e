package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatline/chatline/internal/httputil"
	"github.com/chatline/chatline/internal/logging"
	"github.com/chatline/chatline/internal/user"
)

// ResetThrottle is the slice of the rate limiter the reset flow uses to
// keep one email from being spammed with reset mail.
type ResetThrottle interface {
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}

// Handler contains HTTP handlers for the session lifecycle endpoints
type Handler struct {
	service  *Service
	cookies  *CookieManager
	throttle ResetThrottle
	logger   *logging.Logger
}

func NewHandler(service *Service, cookies *CookieManager, throttle ResetThrottle, logger *logging.Logger) *Handler {
	return &Handler{
		service:  service,
		cookies:  cookies,
		throttle: throttle,
		logger:   logger,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the new password; the reset credential
// travels in the URL path.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// UpdateProfileRequest represents the profile update body. Empty fields
// are left unchanged.
type UpdateProfileRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

// SessionResponse represents a successful signup or login
type SessionResponse struct {
	Message string          `json:"message"`
	User    user.Projection `json:"user"`
	Token   string          `json:"token"`
}

// ProfileResponse represents a successful profile update
type ProfileResponse struct {
	Message string          `json:"message"`
	User    user.Projection `json:"user"`
}

// MessageResponse is a bare confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordResponse is deliberately identical for known and unknown
// emails; ResetURL is only populated under the dev expose flag.
type ForgotPasswordResponse struct {
	Message  string `json:"message"`
	ResetURL string `json:"resetUrl,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Signup handles user registration
// @Summary      Register a new user
// @Description  Create an account, start a session and set the session cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Signup fields"
// @Success      201 {object} SessionResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} ErrorResponse "Email or username already taken"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, token, err := h.service.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUser):
			logger.Warn("signup failed: duplicate user")
			respondError(w, err.Error(), httputil.CodeDuplicateUser, http.StatusConflict)
		case errors.Is(err, ErrAllFieldsRequired):
			respondError(w, err.Error(), httputil.CodeFieldsRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			respondError(w, "failed to sign up", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)

	h.cookies.Attach(w, token)
	respondJSON(w, SessionResponse{
		Message: "Signup successful",
		User:    newUser.Project(),
		Token:   token,
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email or username and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} ErrorResponse "Missing fields"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	existing, token, err := h.service.Login(r.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAllFieldsRequired):
			respondError(w, "email/username and password are required", httputil.CodeFieldsRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			// Same response for unknown identifier and wrong password.
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in", "user_id", existing.ID)

	h.cookies.Attach(w, token)
	respondJSON(w, SessionResponse{
		Message: "Login successful",
		User:    existing.Project(),
		Token:   token,
	}, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Clear the session cookie. Succeeds regardless of prior auth state.
// @Tags         auth
// @Produce      json
// @Success      200 {object} MessageResponse
// @Router       /logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Detach(w)
	respondJSON(w, MessageResponse{Message: "Logout successful"}, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a reset link to the email if an account exists. The response does not reveal whether it does.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} ForgotPasswordResponse
// @Failure      400 {object} ErrorResponse "Missing email"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	// Check email cooldown (2 min)
	onCooldown, err := h.throttle.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
		// Continue despite error to avoid blocking legitimate requests
	} else if onCooldown {
		logger.Warn("email on cooldown")
		respondError(w, "please wait before requesting another reset", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	resetURL, err := h.service.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrEmailRequired) {
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
			return
		}
		logger.Error("forgot password failed: internal error", "error", err.Error())
		respondError(w, "failed to process request", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.throttle.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	// Same shape whether or not the account exists.
	respondJSON(w, ForgotPasswordResponse{
		Message:  "If an account exists with that email, password reset instructions have been sent.",
		ResetURL: resetURL,
	}, http.StatusOK)
}

// ResetPassword handles password reset redemption
// @Summary      Reset password
// @Description  Redeem a reset credential from the URL and set a new password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token path string true "Reset credential"
// @Param        request body ResetPasswordRequest true "New password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Invalid request, password, or token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /reset-password/{token} [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := chi.URLParam(r, "token")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrResetTokenInvalid):
			logger.Warn("password reset failed: invalid or expired token")
			respondError(w, err.Error(), httputil.CodeInvalidResetToken, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset successfully")

	respondJSON(w, MessageResponse{
		Message: "Password reset successfully. You can now login with your new password.",
	}, http.StatusOK)
}

// UpdateProfile handles profile updates for the authenticated user
// @Summary      Update profile
// @Description  Update username, email or profile picture. Outstanding tokens keep their old claims until expiry.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to update"
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} ErrorResponse "Not authenticated"
// @Failure      404 {object} ErrorResponse "User no longer exists"
// @Router       /update-profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update profile request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), claims.ID, req.Username, req.Email, req.ProfilePicture)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrDuplicateUser):
			respondError(w, err.Error(), httputil.CodeDuplicateUser, http.StatusConflict)
		default:
			logger.Error("profile update failed: internal error", "error", err.Error())
			respondError(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, ProfileResponse{
		Message: "Profile updated successfully",
		User:    updated.Project(),
	}, http.StatusOK)
}

// Check returns the decoded session claims
// @Summary      Check session
// @Description  Return the identity decoded from the bearer token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} SessionClaims
// @Failure      401 {object} ErrorResponse "Invalid or expired token"
// @Failure      403 {object} ErrorResponse "No token provided"
// @Router       /check [get]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	respondJSON(w, claims, http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
