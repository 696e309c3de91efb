package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/image-gallery/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ domain.UserRepository = (*UserRepository)(nil)

// UserRepository implements domain.UserRepository using MongoDB.
type UserRepository struct {
	db   *DB
	coll *mongo.Collection
}

// NewUserRepository creates a new MongoDB-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db, coll: db.db.Collection(usersCollection)}
}

type userDoc struct {
	ID           int64     `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	id, err := r.db.nextID(ctx, usersCollection)
	if err != nil {
		return err
	}

	doc := userDoc{
		ID:           id,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.WithMetadata(domain.CodeDuplicateUsername, "username already exists",
				map[string]string{"username": user.Username})
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}
