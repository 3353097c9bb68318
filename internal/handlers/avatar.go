package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/storage"
)

const (
	maxAvatarMemory   = 8 << 20
	maxAvatarBytes    = 8 << 20
	formFieldAvatar   = "avatar"
	defaultAvatarType = "application/octet-stream"
	avatarKeyPrefix   = "avatars/"
)

// AvatarHandler stores and serves member avatar images in object storage.
type AvatarHandler struct {
	storage *storage.Storage
}

func NewAvatarHandler(store *storage.Storage) *AvatarHandler {
	return &AvatarHandler{storage: store}
}

// AvatarRouter registers avatar routes. Both routes derive the object key
// from the authenticated subject.
func AvatarRouter(r chi.Router, store *storage.Storage, gate *AccessGate) {
	handler := NewAvatarHandler(store)

	r.With(gate.RequireAuth).Post("/profile/avatar", handler.Upload)
	r.With(gate.RequireAuth).Get("/profile/avatar", handler.Download)
}

// Upload stores the submitted avatar under the subject's key.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "avatar too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultAvatarType
	}

	key := avatarKeyPrefix + subject
	if err := h.storage.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"key": key}})
}

// Download streams the subject's avatar back.
func (h *AvatarHandler) Download(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}

	reader, err := h.storage.Get(r.Context(), avatarKeyPrefix+subject)
	if err != nil {
		writeFailure(w, http.StatusNotFound, 0, "no data")
		return
	}
	defer reader.Close()

	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}
