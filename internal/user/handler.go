package user

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
)

const maxAvatarSize = 5 << 20

// CurrentUserFunc reads the authenticated user placed in the context by the auth middleware
type CurrentUserFunc func(ctx context.Context) (*User, bool)

// Handler contains HTTP handlers for the /users endpoints
type Handler struct {
	service *Service
	current CurrentUserFunc
}

func NewHandler(service *Service, current CurrentUserFunc) *Handler {
	return &Handler{service: service, current: current}
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} User
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      429 {object} httputil.ErrorResponse
// @Router       /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	httputil.RespondJSON(w, u, http.StatusOK)
}

// UpdateAvatar replaces the current user's avatar
// @Summary      Upload avatar
// @Description  Admin only. Expects a multipart form with an image in the "file" field.
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Avatar image"
// @Success      200 {object} User
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      422 {object} httputil.ErrorResponse
// @Router       /users/avatar [patch]
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, ok := h.current(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize+1024)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("invalid avatar upload", "error", err.Error())
		httputil.RespondErrorWithCode(w, "file is required", httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		return
	}
	defer file.Close()

	// sniff the content instead of trusting the part header
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		httputil.RespondErrorWithCode(w, "failed to read file", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		httputil.RespondErrorWithCode(w, "file must be an image", httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		return
	}

	body := io.MultiReader(bytes.NewReader(head), file)
	updated, err := h.service.UpdateAvatar(r.Context(), u, body, header.Size, contentType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update avatar", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to upload avatar", httputil.CodeUploadFailed, http.StatusInternalServerError)
		return
	}

	logger.Info("avatar updated", "user_id", updated.ID)
	httputil.RespondJSON(w, updated, http.StatusOK)
}
