package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/msomdec/image-gallery/internal/domain"
	"github.com/msomdec/image-gallery/internal/service"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file itself.
const multipartOverhead = 1 << 20

// ImageHandler handles image upload, listing, retrieval, rename and deletion.
type ImageHandler struct {
	images *service.ImageService
	likes  *service.LikeService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService, likes *service.LikeService) *ImageHandler {
	return &ImageHandler{images: images, likes: likes}
}

// HandleList lists the caller's images.
// GET /image?sortField=filename|uploadedAt&sortOrder=asc|desc&onlyLiked=true
func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	q := r.URL.Query()

	sort, err := domain.ParseSort(q.Get("sortField"), q.Get("sortOrder"))
	if err != nil {
		writeServiceError(w, r, "parse sort", err)
		return
	}

	var onlyLiked bool
	if v := q.Get("onlyLiked"); v != "" {
		onlyLiked, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "onlyLiked must be true or false.")
			return
		}
	}

	images, err := h.images.List(r.Context(), username, service.ListOptions{Sort: sort, OnlyLiked: onlyLiked})
	if err != nil {
		writeServiceError(w, r, "list images", err)
		return
	}

	liked, err := h.likedSet(r, username)
	if err != nil {
		writeServiceError(w, r, "list liked images", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images": toImageDTOs(images, liked),
	})
}

// HandleSearch returns the caller's images whose filename contains the
// search term, ignoring case.
// GET /image/search?search=...
func (h *ImageHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	term := r.URL.Query().Get("search")
	if term == "" {
		writeServiceError(w, r, "search images",
			fmt.Errorf("%w: search term is required", domain.ErrInvalidInput))
		return
	}

	images, err := h.images.Search(r.Context(), username, term)
	if err != nil {
		writeServiceError(w, r, "search images", err)
		return
	}

	liked, err := h.likedSet(r, username)
	if err != nil {
		writeServiceError(w, r, "list liked images", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images": toImageDTOs(images, liked),
	})
}

// HandleUpload stores a multipart upload. The file is read from the "image"
// field; an optional "filename" field overrides the client's file name.
// POST /image
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	maxSize := h.images.MaxSize()

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeServiceError(w, r, "read upload", err)
		return
	}

	filename := header.Filename
	if v := r.FormValue("filename"); v != "" {
		filename = v
	}

	image, err := h.images.Add(r.Context(), username, filename, data)
	if err != nil {
		writeServiceError(w, r, "upload image", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"image": toImageDTO(image, false),
	})
}

// HandleGet returns a single image record.
// GET /image/{id}
func (h *ImageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	imageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	image, err := h.images.Get(r.Context(), username, imageID)
	if err != nil {
		writeServiceError(w, r, "get image", err)
		return
	}

	liked, err := h.likes.IsLiked(r.Context(), username, imageID)
	if err != nil {
		writeServiceError(w, r, "check like", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"image": toImageDTO(image, liked),
	})
}

// HandleServe serves image bytes with the stored Content-Type.
// GET /image/{id}/file
func (h *ImageHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	imageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	image, data, err := h.images.GetFile(r.Context(), username, imageID)
	if err != nil {
		writeServiceError(w, r, "serve image", err)
		return
	}

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// HandleRename changes an image's filename.
// PATCH /image/{id}
// Request:  {"newFilename":"..."}
func (h *ImageHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	imageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		NewFilename string `json:"newFilename"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	image, err := h.images.Rename(r.Context(), username, imageID, req.NewFilename)
	if err != nil {
		writeServiceError(w, r, "rename image", err)
		return
	}

	liked, err := h.likes.IsLiked(r.Context(), username, imageID)
	if err != nil {
		writeServiceError(w, r, "check like", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"image": toImageDTO(image, liked),
	})
}

// HandleDelete deletes an image together with its likes and file.
// DELETE /image/{id}
// Response: 204 No Content
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	imageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.images.Delete(r.Context(), username, imageID); err != nil {
		writeServiceError(w, r, "delete image", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ImageHandler) likedSet(r *http.Request, username string) (map[int64]bool, error) {
	ids, err := h.likes.LikedImageIDs(r.Context(), username)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// pathID parses a numeric path value, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name+".")
		return 0, false
	}
	return id, true
}
