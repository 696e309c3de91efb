// Package mongodb implements the metadata stores on MongoDB. Image and user
// ids are int64 sequences kept in a counters collection so both backends
// expose the same id space to callers.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/msomdec/image-gallery/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var _ domain.Database = (*DB)(nil)

const (
	usersCollection    = "users"
	imagesCollection   = "images"
	likesCollection    = "likes"
	countersCollection = "counters"
)

const disconnectTimeout = 5 * time.Second

// DB owns the MongoDB client and hands out the stores built on it.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to uri and verifies the primary is reachable.
func New(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &DB{client: client, db: client.Database(dbName)}, nil
}

// Migrate creates the indexes the stores depend on. The unique indexes are
// what turn concurrent duplicate writes into AlreadyExists errors.
func (d *DB) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		imagesCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "filename", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "uploaded_at", Value: 1}}},
		},
		likesCollection: {
			{Keys: bson.D{{Key: "image_id", Value: 1}, {Key: "owner_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		names, err := d.db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
		slog.InfoContext(ctx, "ensured indexes", "collection", coll, "indexes", names)
	}
	return nil
}

func (d *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d)
}

func (d *DB) Images() domain.ImageRepository {
	return NewImageRepository(d)
}

func (d *DB) Likes() domain.LikeRepository {
	return NewLikeRepository(d)
}

// Drop removes the whole database. Used by tests.
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

// nextID atomically increments and returns the named sequence.
func (d *DB) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := d.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}
