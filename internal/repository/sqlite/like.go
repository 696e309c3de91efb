package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/msomdec/image-gallery/internal/domain"
)

var _ domain.LikeRepository = (*LikeRepository)(nil)

// LikeRepository implements domain.LikeRepository using SQLite.
// The (image_id, owner_id) primary key enforces at most one like per pair.
type LikeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a new SQLite-backed LikeRepository.
func NewLikeRepository(db *DB) *LikeRepository {
	return &LikeRepository{db: db.SqlDB}
}

func (r *LikeRepository) IsLiked(ctx context.Context, imageID, ownerID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE image_id = ? AND owner_id = ?)`,
		imageID, ownerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *LikeRepository) Like(ctx context.Context, imageID, ownerID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (image_id, owner_id, created_at) VALUES (?, ?, ?)`,
		imageID, ownerID, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.WithMetadata(domain.CodeLikeAlreadyExists, "image already liked", likeMetadata(imageID, ownerID))
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (r *LikeRepository) Unlike(ctx context.Context, imageID, ownerID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE image_id = ? AND owner_id = ?`, imageID, ownerID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WithMetadata(domain.CodeLikeNotFound, "like not found", likeMetadata(imageID, ownerID))
	}
	return nil
}

func (r *LikeRepository) LikedImageIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT image_id FROM likes WHERE owner_id = ? ORDER BY image_id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list liked images: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan liked image id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *LikeRepository) DeleteAllForImage(ctx context.Context, imageID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE image_id = ?`, imageID); err != nil {
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
