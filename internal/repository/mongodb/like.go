package mongodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/msomdec/image-gallery/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ domain.LikeRepository = (*LikeRepository)(nil)

// LikeRepository implements domain.LikeRepository using MongoDB.
// The unique (image_id, owner_id) index enforces at most one like per pair.
type LikeRepository struct {
	coll *mongo.Collection
}

// NewLikeRepository creates a new MongoDB-backed LikeRepository.
func NewLikeRepository(db *DB) *LikeRepository {
	return &LikeRepository{coll: db.db.Collection(likesCollection)}
}

type likeDoc struct {
	ImageID   int64     `bson:"image_id"`
	OwnerID   int64     `bson:"owner_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *LikeRepository) IsLiked(ctx context.Context, imageID, ownerID int64) (bool, error) {
	n, err := r.coll.CountDocuments(ctx,
		bson.M{"image_id": imageID, "owner_id": ownerID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return n > 0, nil
}

func (r *LikeRepository) Like(ctx context.Context, imageID, ownerID int64) error {
	_, err := r.coll.InsertOne(ctx, likeDoc{
		ImageID:   imageID,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.WithMetadata(domain.CodeLikeAlreadyExists, "image already liked", likeMetadata(imageID, ownerID))
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (r *LikeRepository) Unlike(ctx context.Context, imageID, ownerID int64) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"image_id": imageID, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.WithMetadata(domain.CodeLikeNotFound, "like not found", likeMetadata(imageID, ownerID))
	}
	return nil
}

func (r *LikeRepository) LikedImageIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"owner_id": ownerID},
		options.Find().
			SetProjection(bson.M{"image_id": 1, "_id": 0}).
			SetSort(bson.D{{Key: "image_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list liked images: %w", err)
	}
	defer cursor.Close(ctx)

	ids := []int64{}
	for cursor.Next(ctx) {
		var doc likeDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode liked image id: %w", err)
		}
		ids = append(ids, doc.ImageID)
	}
	return ids, cursor.Err()
}

func (r *LikeRepository) DeleteAllForImage(ctx context.Context, imageID int64) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"image_id": imageID}); err != nil {
		return fmt.Errorf("delete likes for image: %w", err)
	}
	return nil
}

func likeMetadata(imageID, ownerID int64) map[string]string {
	return map[string]string{
		"image_id": strconv.FormatInt(imageID, 10),
		"owner_id": strconv.FormatInt(ownerID, 10),
	}
}
