package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/msomdec/image-gallery/internal/domain"
	"github.com/msomdec/image-gallery/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

var _ domain.Database = (*DB)(nil)

// DB owns the SQLite connection and hands out the stores built on it.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// WAL mode, foreign keys and a busy timeout are set on every connection.
func New(dbPath string) (*DB, error) {
	dsn := "file:" + dbPath + "?" + url.Values{
		"_pragma": {"journal_mode(WAL)", "foreign_keys(1)", "busy_timeout(5000)"},
	}.Encode()

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: sqlDB}, nil
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Users() domain.UserRepository {
	return NewUserRepository(db)
}

func (db *DB) Images() domain.ImageRepository {
	return NewImageRepository(db)
}

func (db *DB) Likes() domain.LikeRepository {
	return NewLikeRepository(db)
}

// FileStore returns a FileStore that keeps file bytes as BLOBs in this database.
func (db *DB) FileStore() domain.FileStore {
	return &fileStore{db: db.SqlDB}
}
