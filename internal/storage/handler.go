package storage

import (
	"net/http"

	"github.com/chatline/chatline/internal/httputil"
	"github.com/chatline/chatline/internal/logging"
)

// Handler exposes presigned upload URLs to authenticated clients.
type Handler struct {
	uploader *Uploader
	logger   *logging.Logger
}

func NewHandler(uploader *Uploader, logger *logging.Logger) *Handler {
	return &Handler{uploader: uploader, logger: logger}
}

// UploadURLResponse carries the object key and the presigned PUT URL.
type UploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ProfilePictureUploadURL returns a presigned PUT URL for a profile picture
// @Summary      Profile picture upload URL
// @Description  Returns a short-lived presigned S3 PUT URL; the client uploads directly and then saves the key via update-profile.
// @Tags         uploads
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UploadURLResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /uploads/profile-picture [post]
func (h *Handler) ProfilePictureUploadURL(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	key, url, err := h.uploader.PresignedPutURL(r.Context(), "profile_pictures")
	if err != nil {
		logger.Error("failed to presign upload", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create upload URL", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, UploadURLResponse{Key: key, URL: url}, http.StatusOK)
}
