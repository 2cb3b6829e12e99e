package message

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chatline/chatline/internal/auth"
	"github.com/chatline/chatline/internal/httputil"
	"github.com/chatline/chatline/internal/logging"
	"github.com/chatline/chatline/internal/user"
)

// Handler contains HTTP handlers for messaging and the contact list.
// All routes sit behind the auth guard; identity comes from the session
// claims in the request context.
type Handler struct {
	messages *Repository
	users    *user.Repository
	logger   *logging.Logger
}

func NewHandler(messages *Repository, users *user.Repository, logger *logging.Logger) *Handler {
	return &Handler{
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// SendMessageRequest represents the send message body
type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipientId"`
	Text        string    `json:"text"`
	Images      []string  `json:"images"`
}

// ListUsers returns every user except the caller
// @Summary      List users
// @Description  Contact list for the chat sidebar.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} user.Projection
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	users, err := h.users.ListOthers(r.Context(), claims.ID)
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, users, http.StatusOK)
}

// GetConversation returns the message history with another user
// @Summary      Get conversation
// @Description  Both directions of the exchange with the given user, newest first.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "Other user ID"
// @Success      200 {array} Message
// @Failure      400 {object} httputil.ErrorResponse
// @Router       /messages/{userID} [get]
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	otherID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	messages, err := h.messages.Conversation(r.Context(), claims.ID, otherID)
	if err != nil {
		logger.Error("failed to get conversation", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch messages", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, messages, http.StatusOK)
}

// SendMessage stores a new message
// @Summary      Send message
// @Description  Send a text and/or image message to another user.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendMessageRequest true "Message"
// @Success      201 {object} Message
// @Failure      400 {object} httputil.ErrorResponse "Empty message or missing recipient"
// @Router       /messages [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.RecipientID == uuid.Nil || (strings.TrimSpace(req.Text) == "" && len(req.Images) == 0) {
		httputil.RespondErrorWithCode(w, "message content is empty or recipient missing", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	msg, err := h.messages.Create(r.Context(), claims.ID, req.RecipientID, req.Text, req.Images)
	if err != nil {
		logger.Error("failed to send message", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to send message", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, msg, http.StatusCreated)
}
