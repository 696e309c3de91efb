package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const maxFilenameLength = 255

// Image holds the metadata of an uploaded image. The bytes live in a FileStore
// under StoragePath.
type Image struct {
	ID          int64
	OwnerID     int64
	Filename    string
	StoragePath string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

type SortField string

const (
	SortByFilename   SortField = "filename"
	SortByUploadedAt SortField = "uploadedAt"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort selects the ordering of an image listing. Ties always break by
// ascending image id.
type Sort struct {
	Field SortField
	Order SortOrder
}

// DefaultSort lists the newest uploads first.
var DefaultSort = Sort{Field: SortByUploadedAt, Order: SortDesc}

// ParseSort validates raw query values. Empty values fall back to DefaultSort.
func ParseSort(field, order string) (Sort, error) {
	s := DefaultSort
	switch SortField(field) {
	case "":
	case SortByFilename, SortByUploadedAt:
		s.Field = SortField(field)
	default:
		return Sort{}, fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, field)
	}
	switch SortOrder(order) {
	case "":
	case SortAsc, SortDesc:
		s.Order = SortOrder(order)
	default:
		return Sort{}, fmt.Errorf("%w: unknown sort order %q", ErrInvalidInput, order)
	}
	return s, nil
}

// ImageRepository is the image metadata store. It is the source of truth for
// per-owner filename uniqueness.
type ImageRepository interface {
	// Add inserts a record and sets its ID and UploadedAt. Returns
	// ErrDuplicateFilename if the owner already has an image with that filename.
	Add(ctx context.Context, image *Image) error
	// List returns the owner's images in the requested order. A nil idFilter
	// means no filter; a non-nil one restricts results to those ids.
	List(ctx context.Context, ownerID int64, sort Sort, idFilter []int64) ([]Image, error)
	// Search matches filenames containing substring, case-insensitively.
	// An empty substring matches nothing.
	Search(ctx context.Context, ownerID int64, substring string) ([]Image, error)
	FindByID(ctx context.Context, id int64) (*Image, error)
	Delete(ctx context.Context, id int64) error
	// Rename updates filename and storage path together. Returns
	// ErrDuplicateFilename if the new name collides with a sibling.
	Rename(ctx context.Context, id int64, newFilename, newStoragePath string) error
}

// StoragePath returns the store-relative key under which an owner's file is kept.
func StoragePath(ownerID int64, filename string) string {
	return strconv.FormatInt(ownerID, 10) + "/" + filename
}

// ValidateFilename rejects names that cannot be used as a file inside an
// owner's namespace.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: filename is required", ErrInvalidInput)
	case len(name) > maxFilenameLength:
		return fmt.Errorf("%w: filename exceeds %d bytes", ErrInvalidInput, maxFilenameLength)
	case name == "." || name == "..":
		return fmt.Errorf("%w: filename %q is reserved", ErrInvalidInput, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: filename must not contain path separators", ErrInvalidInput)
	}
	return nil
}
