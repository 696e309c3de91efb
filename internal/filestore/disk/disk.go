// Package disk stores image bytes on the local filesystem, one directory per
// owner beneath a root directory. All access goes through an os.Root, so a
// filename can never resolve outside the root.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/msomdec/image-gallery/internal/domain"
)

var _ domain.FileStore = (*Store)(nil)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store implements domain.FileStore on a directory tree.
type Store struct {
	root *os.Root
}

// New opens (creating if needed) dir as the store root.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open upload dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Close releases the root directory handle.
func (s *Store) Close() error {
	return s.root.Close()
}

// Save writes data to a temporary file in the owner's directory and renames
// it into place, so readers never observe a partial file.
func (s *Store) Save(ctx context.Context, ownerID int64, filename string, data []byte) (string, error) {
	key := domain.StoragePath(ownerID, filename)
	if err := domain.ValidateFilename(filename); err != nil {
		return "", fileError("save file", key, err)
	}

	dir := ownerDir(ownerID)
	if err := s.root.MkdirAll(dir, dirPerm); err != nil {
		return "", fileError("create owner dir", key, err)
	}

	tmp := filepath.Join(dir, ".upload-"+uuid.NewString())
	if err := s.root.WriteFile(tmp, data, filePerm); err != nil {
		s.root.Remove(tmp)
		return "", fileError("write file", key, err)
	}
	if err := s.root.Rename(tmp, filepath.Join(dir, filename)); err != nil {
		s.root.Remove(tmp)
		return "", fileError("commit file", key, err)
	}
	return key, nil
}

func (s *Store) Get(ctx context.Context, ownerID int64, filename string) ([]byte, error) {
	key := domain.StoragePath(ownerID, filename)
	name, err := ownerFile(ownerID, filename)
	if err != nil {
		return nil, fileError("read file", key, err)
	}
	data, err := s.root.ReadFile(name)
	if err != nil {
		return nil, fileError("read file", key, err)
	}
	return data, nil
}

func (s *Store) Resolve(ctx context.Context, ownerID int64, filename string) (string, error) {
	key := domain.StoragePath(ownerID, filename)
	name, err := ownerFile(ownerID, filename)
	if err != nil {
		return "", fileError("resolve file", key, err)
	}
	info, err := s.root.Stat(name)
	if err != nil {
		return "", fileError("resolve file", key, err)
	}
	if !info.Mode().IsRegular() {
		return "", fileError("resolve file", key, errors.New("not a regular file"))
	}
	return key, nil
}

// Rename moves a file within the owner's directory, replacing any file
// already at the target.
func (s *Store) Rename(ctx context.Context, ownerID int64, oldFilename, newFilename string) (string, error) {
	oldKey := domain.StoragePath(ownerID, oldFilename)
	oldName, err := ownerFile(ownerID, oldFilename)
	if err != nil {
		return "", fileError("rename file", oldKey, err)
	}
	newName, err := ownerFile(ownerID, newFilename)
	if err != nil {
		return "", fileError("rename file", domain.StoragePath(ownerID, newFilename), err)
	}

	if _, err := s.root.Stat(oldName); err != nil {
		return "", fileError("rename file", oldKey, err)
	}
	if oldName == newName {
		return oldKey, nil
	}
	if err := s.root.Rename(oldName, newName); err != nil {
		return "", fileError("rename file", oldKey, err)
	}
	return domain.StoragePath(ownerID, newFilename), nil
}

// Delete removes the file and prunes the owner directory once it is empty.
func (s *Store) Delete(ctx context.Context, ownerID int64, filename string) error {
	key := domain.StoragePath(ownerID, filename)
	name, err := ownerFile(ownerID, filename)
	if err != nil {
		return fileError("delete file", key, err)
	}
	if err := s.root.Remove(name); err != nil {
		return fileError("delete file", key, err)
	}

	// Remove fails on a non-empty directory, which is the common case.
	if err := s.root.Remove(ownerDir(ownerID)); err == nil {
		slog.DebugContext(ctx, "pruned empty owner dir", "owner_id", ownerID)
	}
	return nil
}

func ownerDir(ownerID int64) string {
	return strconv.FormatInt(ownerID, 10)
}

func ownerFile(ownerID int64, filename string) (string, error) {
	if err := domain.ValidateFilename(filename); err != nil {
		return "", err
	}
	return filepath.Join(ownerDir(ownerID), filename), nil
}

func fileError(op, key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		err = errors.New("file does not exist")
	}
	return domain.WrapWithMetadata(domain.CodeFileOperationFailed, op,
		map[string]string{"storage_path": key}, err)
}
