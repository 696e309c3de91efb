package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/msomdec/image-gallery/internal/domain"
)

// LikeService manages a user's likes on their own images.
type LikeService struct {
	identity *IdentityService
	images   domain.ImageRepository
	likes    domain.LikeRepository
}

// NewLikeService creates a new LikeService.
func NewLikeService(identity *IdentityService, images domain.ImageRepository, likes domain.LikeRepository) *LikeService {
	return &LikeService{identity: identity, images: images, likes: likes}
}

// IsLiked reports whether the caller likes the image. Unknown images are
// simply not liked.
func (s *LikeService) IsLiked(ctx context.Context, username string, imageID int64) (bool, error) {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return false, err
	}

	liked, err := s.likes.IsLiked(ctx, imageID, user.ID)
	if err != nil {
		return false, translate("check like", err)
	}
	return liked, nil
}

// Like records a like. The image must exist and belong to the caller; a
// second like of the same image is ErrLikeAlreadyExists.
func (s *LikeService) Like(ctx context.Context, username string, imageID int64) error {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return err
	}

	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return translate("find image", err)
	}
	if image.OwnerID != user.ID {
		return translate("find image", domain.ErrImageNotFound)
	}

	if err := s.likes.Like(ctx, imageID, user.ID); err != nil {
		return translate("like image", err)
	}

	// A Delete between the check above and the insert has already cleared
	// the image's likes, so this one would be left dangling.
	if _, err := s.images.FindByID(ctx, imageID); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			if unErr := s.likes.Unlike(context.WithoutCancel(ctx), imageID, user.ID); unErr != nil {
				slog.WarnContext(ctx, "remove like on deleted image", "image_id", imageID, "error", unErr)
			}
		}
		return translate("find image", err)
	}
	return nil
}

// Unlike removes a like, returning ErrLikeNotFound if there was none.
func (s *LikeService) Unlike(ctx context.Context, username string, imageID int64) error {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return err
	}

	if err := s.likes.Unlike(ctx, imageID, user.ID); err != nil {
		return translate("unlike image", err)
	}
	return nil
}

// LikedImageIDs returns the ids of every image the caller likes.
func (s *LikeService) LikedImageIDs(ctx context.Context, username string) ([]int64, error) {
	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	ids, err := s.likes.LikedImageIDs(ctx, user.ID)
	if err != nil {
		return nil, translate("list liked images", err)
	}
	return ids, nil
}
