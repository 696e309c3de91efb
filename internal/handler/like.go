package handler

import (
	"net/http"

	"github.com/msomdec/image-gallery/internal/service"
)

// LikeHandler exposes the like lifecycle of the caller's images.
type LikeHandler struct {
	likes *service.LikeService
}

// NewLikeHandler creates a new LikeHandler.
func NewLikeHandler(likes *service.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// HandleList returns the ids of every image the caller likes.
// GET /like
// Response: {"imageIds":[...]}
func (h *LikeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.likes.LikedImageIDs(r.Context(), UsernameFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "list liked images", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"imageIds": ids})
}

// HandleGet reports whether the caller likes an image.
// GET /like/{imageId}
// Response: {"liked":true|false}
func (h *LikeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}

	liked, err := h.likes.IsLiked(r.Context(), UsernameFromContext(r.Context()), imageID)
	if err != nil {
		writeServiceError(w, r, "check like", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// HandleLike likes an image. Liking an already liked image is a 409.
// POST /like/{imageId}
func (h *LikeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}

	if err := h.likes.Like(r.Context(), UsernameFromContext(r.Context()), imageID); err != nil {
		writeServiceError(w, r, "like image", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"liked": true})
}

// HandleUnlike removes a like. Unliking an image that is not liked is a 404.
// DELETE /like/{imageId}
// Response: 204 No Content
func (h *LikeHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}

	if err := h.likes.Unlike(r.Context(), UsernameFromContext(r.Context()), imageID); err != nil {
		writeServiceError(w, r, "unlike image", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
