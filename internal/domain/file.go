package domain

import "context"

// FileStore abstracts raw file byte storage under per-owner namespaces.
// Every failure is reported as ErrFileOperationFailed. Filenames here are
// derived from image metadata; the store has no uniqueness rules and Save
// and Rename overwrite an existing target.
type FileStore interface {
	Save(ctx context.Context, ownerID int64, filename string, data []byte) (string, error)
	Get(ctx context.Context, ownerID int64, filename string) ([]byte, error)
	Rename(ctx context.Context, ownerID int64, oldFilename, newFilename string) (string, error)
	Delete(ctx context.Context, ownerID int64, filename string) error
	Resolve(ctx context.Context, ownerID int64, filename string) (string, error)
}
