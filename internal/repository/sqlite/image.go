package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/msomdec/image-gallery/internal/domain"
	"golang.org/x/text/cases"
)

var _ domain.ImageRepository = (*ImageRepository)(nil)

// ImageRepository implements domain.ImageRepository using SQLite.
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new SQLite-backed ImageRepository.
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db.SqlDB}
}

const imageColumns = `id, owner_id, filename, storage_path, content_type, size, uploaded_at`

type scanner interface {
	Scan(dest ...any) error
}

// imageRow mirrors the images table; uploaded_at is stored as unix nanoseconds.
type imageRow struct {
	ID          int64
	OwnerID     int64
	Filename    string
	StoragePath string
	ContentType string
	Size        int64
	UploadedAt  int64
}

func (r *imageRow) scan(s scanner) error {
	return s.Scan(&r.ID, &r.OwnerID, &r.Filename, &r.StoragePath, &r.ContentType, &r.Size, &r.UploadedAt)
}

func (r imageRow) toDomain() domain.Image {
	return domain.Image{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Filename:    r.Filename,
		StoragePath: r.StoragePath,
		ContentType: r.ContentType,
		Size:        r.Size,
		UploadedAt:  fromUnixNano(r.UploadedAt),
	}
}

func (r *ImageRepository) Add(ctx context.Context, image *domain.Image) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO images (owner_id, filename, filename_folded, storage_path, content_type, size, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		image.OwnerID, image.Filename, foldFilename(image.Filename), image.StoragePath, image.ContentType, image.Size, now.UnixNano(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return duplicateFilename(image.OwnerID, image.Filename)
		}
		return fmt.Errorf("insert image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	image.ID = id
	image.UploadedAt = fromUnixNano(now.UnixNano())
	return nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	var row imageRow
	err := row.scan(r.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, imageNotFound(id)
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	img := row.toDomain()
	return &img, nil
}

func (r *ImageRepository) List(ctx context.Context, ownerID int64, sort domain.Sort, idFilter []int64) ([]domain.Image, error) {
	order, err := orderBy(sort)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + imageColumns + ` FROM images WHERE owner_id = ?`
	args := []any{ownerID}
	if idFilter != nil {
		if len(idFilter) == 0 {
			return []domain.Image{}, nil
		}
		ids, err := json.Marshal(idFilter)
		if err != nil {
			return nil, fmt.Errorf("encode id filter: %w", err)
		}
		query += ` AND id IN (SELECT value FROM json_each(?))`
		args = append(args, string(ids))
	}
	query += ` ORDER BY ` + order

	return r.query(ctx, query, args...)
}

func (r *ImageRepository) Search(ctx context.Context, ownerID int64, substring string) ([]domain.Image, error) {
	if substring == "" {
		return []domain.Image{}, nil
	}

	// SQLite's LIKE and lower() only fold ASCII, so both sides are folded in
	// Go and compared bytewise with instr.
	return r.query(ctx,
		`SELECT `+imageColumns+` FROM images
		 WHERE owner_id = ? AND instr(filename_folded, ?) > 0
		 ORDER BY id ASC`,
		ownerID, foldFilename(substring))
}

func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return imageNotFound(id)
	}
	return nil
}

func (r *ImageRepository) Rename(ctx context.Context, id int64, newFilename, newStoragePath string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE images SET filename = ?, filename_folded = ?, storage_path = ? WHERE id = ?`,
		newFilename, foldFilename(newFilename), newStoragePath, id,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.WithMetadata(domain.CodeDuplicateFilename, "filename already exists",
				map[string]string{"image_id": strconv.FormatInt(id, 10), "filename": newFilename})
		}
		return fmt.Errorf("rename image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return imageNotFound(id)
	}
	return nil
}

func (r *ImageRepository) query(ctx context.Context, query string, args ...any) ([]domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := []domain.Image{}
	for rows.Next() {
		var row imageRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, row.toDomain())
	}
	return images, rows.Err()
}

// orderBy builds the ORDER BY clause from a whitelisted sort.
func orderBy(s domain.Sort) (string, error) {
	var col string
	switch s.Field {
	case domain.SortByFilename:
		col = "filename"
	case domain.SortByUploadedAt:
		col = "uploaded_at"
	default:
		return "", fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidInput, s.Field)
	}

	var dir string
	switch s.Order {
	case domain.SortAsc:
		dir = "ASC"
	case domain.SortDesc:
		dir = "DESC"
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidInput, s.Order)
	}

	return col + " " + dir + ", id ASC", nil
}

func foldFilename(name string) string {
	return cases.Fold().String(name)
}

func imageNotFound(id int64) error {
	return domain.WithMetadata(domain.CodeImageNotFound, "image not found",
		map[string]string{"image_id": strconv.FormatInt(id, 10)})
}

func duplicateFilename(ownerID int64, filename string) error {
	return domain.WithMetadata(domain.CodeDuplicateFilename, "filename already exists",
		map[string]string{"owner_id": strconv.FormatInt(ownerID, 10), "filename": filename})
}
