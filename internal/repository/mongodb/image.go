package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/msomdec/image-gallery/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/text/cases"
)

var _ domain.ImageRepository = (*ImageRepository)(nil)

// ImageRepository implements domain.ImageRepository using MongoDB. The
// unique (owner_id, filename) index arbitrates concurrent adds and renames.
type ImageRepository struct {
	db   *DB
	coll *mongo.Collection
}

// NewImageRepository creates a new MongoDB-backed ImageRepository.
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db, coll: db.db.Collection(imagesCollection)}
}

// imageDoc is the stored form of an image. FilenameFolded holds the
// case-folded filename that search matches against.
type imageDoc struct {
	ID             int64     `bson:"_id"`
	OwnerID        int64     `bson:"owner_id"`
	Filename       string    `bson:"filename"`
	FilenameFolded string    `bson:"filename_folded"`
	StoragePath    string    `bson:"storage_path"`
	ContentType    string    `bson:"content_type"`
	Size           int64     `bson:"size"`
	UploadedAt     time.Time `bson:"uploaded_at"`
}

func (d imageDoc) toDomain() domain.Image {
	return domain.Image{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Filename:    d.Filename,
		StoragePath: d.StoragePath,
		ContentType: d.ContentType,
		Size:        d.Size,
		UploadedAt:  d.UploadedAt.UTC(),
	}
}

func foldFilename(name string) string {
	return cases.Fold().String(name)
}

func (r *ImageRepository) Add(ctx context.Context, image *domain.Image) error {
	id, err := r.db.nextID(ctx, imagesCollection)
	if err != nil {
		return err
	}

	doc := imageDoc{
		ID:             id,
		OwnerID:        image.OwnerID,
		Filename:       image.Filename,
		FilenameFolded: foldFilename(image.Filename),
		StoragePath:    image.StoragePath,
		ContentType:    image.ContentType,
		Size:           image.Size,
		UploadedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateFilename(image.OwnerID, image.Filename)
		}
		return fmt.Errorf("insert image: %w", err)
	}

	image.ID = doc.ID
	image.UploadedAt = doc.UploadedAt
	return nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	var doc imageDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, imageNotFound(id)
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	img := doc.toDomain()
	return &img, nil
}

func (r *ImageRepository) List(ctx context.Context, ownerID int64, sort domain.Sort, idFilter []int64) ([]domain.Image, error) {
	order, err := sortSpec(sort)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"owner_id": ownerID}
	if idFilter != nil {
		if len(idFilter) == 0 {
			return []domain.Image{}, nil
		}
		filter["_id"] = bson.M{"$in": idFilter}
	}

	return r.find(ctx, filter, options.Find().SetSort(order))
}

func (r *ImageRepository) Search(ctx context.Context, ownerID int64, substring string) ([]domain.Image, error) {
	if substring == "" {
		return []domain.Image{}, nil
	}

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(foldFilename(substring))}
	filter := bson.M{
		"owner_id":        ownerID,
		"filename_folded": bson.M{"$regex": pattern},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if result.DeletedCount == 0 {
		return imageNotFound(id)
	}
	return nil
}

func (r *ImageRepository) Rename(ctx context.Context, id int64, newFilename, newStoragePath string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"filename":        newFilename,
			"filename_folded": foldFilename(newFilename),
			"storage_path":    newStoragePath,
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.WithMetadata(domain.CodeDuplicateFilename, "filename already exists",
				map[string]string{"image_id": strconv.FormatInt(id, 10), "filename": newFilename})
		}
		return fmt.Errorf("rename image: %w", err)
	}
	if result.MatchedCount == 0 {
		return imageNotFound(id)
	}
	return nil
}

func (r *ImageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Image, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer cursor.Close(ctx)

	images := []domain.Image{}
	for cursor.Next(ctx) {
		var doc imageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		images = append(images, doc.toDomain())
	}
	return images, cursor.Err()
}

// sortSpec maps a whitelisted sort onto a Mongo sort document. Ties break on
// ascending id.
func sortSpec(s domain.Sort) (bson.D, error) {
	var field string
	switch s.Field {
	case domain.SortByFilename:
		field = "filename"
	case domain.SortByUploadedAt:
		field = "uploaded_at"
	default:
		return nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidInput, s.Field)
	}

	var dir int
	switch s.Order {
	case domain.SortAsc:
		dir = 1
	case domain.SortDesc:
		dir = -1
	default:
		return nil, fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidInput, s.Order)
	}

	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}, nil
}

func imageNotFound(id int64) error {
	return domain.WithMetadata(domain.CodeImageNotFound, "image not found",
		map[string]string{"image_id": strconv.FormatInt(id, 10)})
}

func duplicateFilename(ownerID int64, filename string) error {
	return domain.WithMetadata(domain.CodeDuplicateFilename, "filename already exists",
		map[string]string{"owner_id": strconv.FormatInt(ownerID, 10), "filename": filename})
}
