package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msomdec/image-gallery/internal/domain"
)

var _ domain.FileStore = (*fileStore)(nil)

// fileStore implements domain.FileStore using SQLite BLOBs keyed by
// domain.StoragePath. An owner's namespace is the set of rows with its
// owner_id, so it never needs creating or pruning.
type fileStore struct {
	db *sql.DB
}

func (s *fileStore) Save(ctx context.Context, ownerID int64, filename string, data []byte) (string, error) {
	key := domain.StoragePath(ownerID, filename)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_blobs (storage_key, owner_id, data) VALUES (?, ?, ?)
		 ON CONFLICT (storage_key) DO UPDATE SET data = excluded.data`,
		key, ownerID, data,
	)
	if err != nil {
		return "", fileError("save file blob", key, err)
	}
	return key, nil
}

func (s *fileStore) Get(ctx context.Context, ownerID int64, filename string) ([]byte, error) {
	key := domain.StoragePath(ownerID, filename)
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM file_blobs WHERE storage_key = ?", key,
	).Scan(&data)
	if err != nil {
		return nil, fileError("get file blob", key, err)
	}
	return data, nil
}

func (s *fileStore) Resolve(ctx context.Context, ownerID int64, filename string) (string, error) {
	key := domain.StoragePath(ownerID, filename)
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM file_blobs WHERE storage_key = ?)", key,
	).Scan(&exists)
	if err != nil {
		return "", fileError("resolve file blob", key, err)
	}
	if !exists {
		return "", fileError("resolve file blob", key, sql.ErrNoRows)
	}
	return key, nil
}

func (s *fileStore) Rename(ctx context.Context, ownerID int64, oldFilename, newFilename string) (string, error) {
	oldKey := domain.StoragePath(ownerID, oldFilename)
	newKey := domain.StoragePath(ownerID, newFilename)
	if oldKey == newKey {
		return s.Resolve(ctx, ownerID, oldFilename)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fileError("rename file blob", oldKey, err)
	}
	defer tx.Rollback()

	// Clear any stale blob at the target, then move the source onto it.
	if _, err := tx.ExecContext(ctx, "DELETE FROM file_blobs WHERE storage_key = ?", newKey); err != nil {
		return "", fileError("rename file blob", newKey, err)
	}
	result, err := tx.ExecContext(ctx,
		"UPDATE file_blobs SET storage_key = ? WHERE storage_key = ?", newKey, oldKey)
	if err != nil {
		return "", fileError("rename file blob", oldKey, err)
	}
	if err := requireOneRow(result); err != nil {
		return "", fileError("rename file blob", oldKey, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fileError("rename file blob", oldKey, err)
	}
	return newKey, nil
}

func (s *fileStore) Delete(ctx context.Context, ownerID int64, filename string) error {
	key := domain.StoragePath(ownerID, filename)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM file_blobs WHERE storage_key = ?", key,
	)
	if err != nil {
		return fileError("delete file blob", key, err)
	}
	if err := requireOneRow(result); err != nil {
		return fileError("delete file blob", key, err)
	}
	return nil
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func fileError(op, key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.New("file does not exist")
	}
	return domain.WrapWithMetadata(domain.CodeFileOperationFailed, op,
		map[string]string{"storage_path": key}, err)
}
