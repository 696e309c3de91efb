package domain

import "context"

// Database is an opened metadata backend. Each implementation (SQLite,
// MongoDB) owns its own schema strategy and hands out the stores built on
// its connection. Open it at process start and Close it at shutdown.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
	Users() UserRepository
	Images() ImageRepository
	Likes() LikeRepository
}
