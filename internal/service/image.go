package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/msomdec/image-gallery/internal/domain"
)

// DefaultMaxImageSize is the upload limit used when none is configured.
const DefaultMaxImageSize = 10 * 1024 * 1024 // 10MB

var allowedContentTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ListOptions controls an image listing.
type ListOptions struct {
	Sort      domain.Sort
	OnlyLiked bool
}

// ImageService composes the metadata store, the like store and the file
// store into single logical operations, scoped to a username.
//
// The metadata store is written before the file store on add and rename so
// that its (owner, filename) constraint decides races before any file is
// touched; a failed file step undoes the metadata change. On delete, like and
// file cleanup are best-effort once the metadata row is gone.
type ImageService struct {
	identity *IdentityService
	images   domain.ImageRepository
	likes    domain.LikeRepository
	files    domain.FileStore
	maxSize  int64
}

// NewImageService creates a new ImageService. A maxSize of zero or less uses
// DefaultMaxImageSize.
func NewImageService(identity *IdentityService, images domain.ImageRepository, likes domain.LikeRepository, files domain.FileStore, maxSize int64) *ImageService {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return &ImageService{identity: identity, images: images, likes: likes, files: files, maxSize: maxSize}
}

// MaxSize returns the largest accepted upload in bytes.
func (s *ImageService) MaxSize() int64 {
	return s.maxSize
}

// Add validates and stores a new image for username.
func (s *ImageService) Add(ctx context.Context, username, filename string, data []byte) (*domain.Image, error) {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateFilename(filename); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: image exceeds %d byte limit", domain.ErrInvalidInput, s.maxSize)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedContentTypes...) {
		return nil, fmt.Errorf("%w: unsupported image type %s", domain.ErrInvalidInput, mtype.String())
	}

	image := &domain.Image{
		OwnerID:     user.ID,
		Filename:    filename,
		StoragePath: domain.StoragePath(user.ID, filename),
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}
	if err := s.images.Add(ctx, image); err != nil {
		return nil, translate("add image", err)
	}

	path, err := s.files.Save(ctx, user.ID, filename, data)
	if err != nil {
		cleanupCtx := context.WithoutCancel(ctx)
		if delErr := s.images.Delete(cleanupCtx, image.ID); delErr != nil {
			slog.WarnContext(ctx, "remove image record after failed save",
				"image_id", image.ID, "error", delErr)
		} else if likeErr := s.likes.DeleteAllForImage(cleanupCtx, image.ID); likeErr != nil {
			// The record was visible while the save ran and may have been liked.
			slog.WarnContext(ctx, "delete likes after failed save",
				"image_id", image.ID, "error", likeErr)
		}
		return nil, translate("save file", err)
	}
	image.StoragePath = path

	slog.InfoContext(ctx, "image added", "image_id", image.ID, "owner_id", user.ID, "size", image.Size)
	return image, nil
}

// List returns the caller's images in the requested order, optionally only
// those the caller has liked.
func (s *ImageService) List(ctx context.Context, username string, opts ListOptions) ([]domain.Image, error) {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	var idFilter []int64
	if opts.OnlyLiked {
		idFilter, err = s.likes.LikedImageIDs(ctx, user.ID)
		if err != nil {
			return nil, translate("list liked images", err)
		}
		if idFilter == nil {
			idFilter = []int64{}
		}
	}

	sort := opts.Sort
	if sort == (domain.Sort{}) {
		sort = domain.DefaultSort
	}

	images, err := s.images.List(ctx, user.ID, sort, idFilter)
	if err != nil {
		return nil, translate("list images", err)
	}
	return images, nil
}

// Search returns the caller's images whose filename contains substring,
// case-insensitively. An empty substring matches nothing.
func (s *ImageService) Search(ctx context.Context, username, substring string) ([]domain.Image, error) {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	images, err := s.images.Search(ctx, user.ID, substring)
	if err != nil {
		return nil, translate("search images", err)
	}
	return images, nil
}

// Get returns one of the caller's images.
func (s *ImageService) Get(ctx context.Context, username string, imageID int64) (*domain.Image, error) {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.owned(ctx, user, imageID)
}

// GetFile returns an image record and its bytes.
func (s *ImageService) GetFile(ctx context.Context, username string, imageID int64) (*domain.Image, []byte, error) {
	image, err := s.Get(ctx, username, imageID)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.files.Get(ctx, image.OwnerID, image.Filename)
	if err != nil {
		return nil, nil, translate("get file", err)
	}
	return image, data, nil
}

// Delete removes an image. It succeeds once the metadata record is gone;
// failures removing its likes or its file are logged and not returned.
func (s *ImageService) Delete(ctx context.Context, username string, imageID int64) error {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return err
	}

	image, err := s.owned(ctx, user, imageID)
	if err != nil {
		return err
	}

	if err := s.images.Delete(ctx, image.ID); err != nil {
		return translate("delete image", err)
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.likes.DeleteAllForImage(cleanupCtx, image.ID); err != nil {
		slog.WarnContext(ctx, "delete likes for removed image", "image_id", image.ID, "error", err)
	}
	if err := s.files.Delete(cleanupCtx, image.OwnerID, image.Filename); err != nil {
		slog.WarnContext(ctx, "delete file for removed image",
			"image_id", image.ID, "storage_path", image.StoragePath, "error", err)
	}

	slog.InfoContext(ctx, "image deleted", "image_id", image.ID, "owner_id", user.ID)
	return nil
}

// Rename changes an image's filename and storage path together. The new
// name must be unique among the owner's images.
func (s *ImageService) Rename(ctx context.Context, username string, imageID int64, newFilename string) (*domain.Image, error) {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateFilename(newFilename); err != nil {
		return nil, err
	}

	image, err := s.owned(ctx, user, imageID)
	if err != nil {
		return nil, err
	}
	if image.Filename == newFilename {
		return image, nil
	}

	// A missing file would leave the record renamed with nothing behind it.
	if _, err := s.files.Resolve(ctx, user.ID, image.Filename); err != nil {
		return nil, translate("resolve file", err)
	}

	oldFilename, oldPath := image.Filename, image.StoragePath
	newPath := domain.StoragePath(user.ID, newFilename)
	if err := s.images.Rename(ctx, image.ID, newFilename, newPath); err != nil {
		return nil, translate("rename image", err)
	}

	path, err := s.files.Rename(ctx, user.ID, oldFilename, newFilename)
	if err != nil {
		cleanupCtx := context.WithoutCancel(ctx)
		if revErr := s.images.Rename(cleanupCtx, image.ID, oldFilename, oldPath); revErr != nil {
			slog.WarnContext(ctx, "revert image rename after failed file rename",
				"image_id", image.ID, "error", revErr)
		}
		return nil, translate("rename file", err)
	}

	image.Filename = newFilename
	image.StoragePath = path
	return image, nil
}

// owned loads an image and hides images of other owners behind not found.
func (s *ImageService) owned(ctx context.Context, user *domain.User, imageID int64) (*domain.Image, error) {
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, translate("find image", err)
	}
	if image.OwnerID != user.ID {
		return nil, domain.WithMetadata(domain.CodeImageNotFound, "find image",
			map[string]string{"image_id": strconv.FormatInt(imageID, 10)})
	}
	return image, nil
}
