package domain

import (
	"context"
	"time"
)

// Like records that an owner liked an image. The pair is unique.
type Like struct {
	ImageID   int64
	OwnerID   int64
	CreatedAt time.Time
}

// LikeRepository maintains the set of (image, owner) like pairs. It does not
// know whether the image still exists; callers cascade deletions.
type LikeRepository interface {
	IsLiked(ctx context.Context, imageID, ownerID int64) (bool, error)
	// Like returns ErrLikeAlreadyExists if the pair is already present.
	Like(ctx context.Context, imageID, ownerID int64) error
	// Unlike returns ErrLikeNotFound if the pair is absent.
	Unlike(ctx context.Context, imageID, ownerID int64) error
	LikedImageIDs(ctx context.Context, ownerID int64) ([]int64, error)
	// DeleteAllForImage removes every like of the image regardless of owner.
	DeleteAllForImage(ctx context.Context, imageID int64) error
}
