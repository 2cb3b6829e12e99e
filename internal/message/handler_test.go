package message

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatline/chatline/internal/auth"
	"github.com/chatline/chatline/internal/logging"
)

func authedRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	claims := &auth.SessionClaims{ID: uuid.New(), Username: "alice"}
	return req.WithContext(context.WithValue(req.Context(), auth.ClaimsContextKey, claims))
}

// The validation paths reject before any repository call, so a handler
// with nil repositories is enough to exercise them.
func TestSendMessageValidation(t *testing.T) {
	h := NewHandler(nil, nil, logging.NewLogger(true))

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.SendMessage(rec, httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString("{}")))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing recipient", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.SendMessage(rec, authedRequest(t, http.MethodPost, "/messages", SendMessageRequest{Text: "hi"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty content", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.SendMessage(rec, authedRequest(t, http.MethodPost, "/messages", SendMessageRequest{
			RecipientID: uuid.New(),
			Text:        "   ",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.SendMessage(rec, authedRequest(t, http.MethodPost, "/messages", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetConversationRejectsBadUserID(t *testing.T) {
	h := NewHandler(nil, nil, logging.NewLogger(true))

	rec := httptest.NewRecorder()
	h.GetConversation(rec, authedRequest(t, http.MethodGet, "/messages/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
