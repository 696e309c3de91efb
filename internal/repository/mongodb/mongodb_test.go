package mongodb_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/image-gallery/internal/domain"
	"github.com/msomdec/image-gallery/internal/repository/mongodb"
)

// newTestDB connects to MONGODB_TEST_URI and returns a fresh, migrated
// database that is dropped when the test ends.
func newTestDB(t *testing.T) *mongodb.DB {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "gallery_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := mongodb.New(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Drop(context.Background())
		db.Close()
	})
	return db
}

func seedUser(t *testing.T, db *mongodb.DB, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func addImage(t *testing.T, db *mongodb.DB, ownerID int64, filename string) *domain.Image {
	t.Helper()
	img := &domain.Image{
		OwnerID:     ownerID,
		Filename:    filename,
		StoragePath: domain.StoragePath(ownerID, filename),
		ContentType: "image/png",
		Size:        10,
	}
	if err := db.Images().Add(context.Background(), img); err != nil {
		t.Fatalf("Add(%s): %v", filename, err)
	}
	return img
}

func filenames(images []domain.Image) string {
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = img.Filename
	}
	return strings.Join(names, ",")
}

func TestMigrateIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := db.Users()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	if alice.ID == 0 || bob.ID == alice.ID {
		t.Fatalf("expected distinct non-zero ids, got %d and %d", alice.ID, bob.ID)
	}

	got, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != alice.ID {
		t.Fatalf("expected id %d, got %d", alice.ID, got.ID)
	}
	if _, err := users.GetByID(ctx, bob.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if err := users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x"}); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if _, err := users.GetByUsername(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestImageRepository_AddAndFind(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	img := addImage(t, db, alice.ID, "cat.png")
	got, err := db.Images().FindByID(ctx, img.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Filename != "cat.png" || got.OwnerID != alice.ID || got.StoragePath != img.StoragePath {
		t.Fatalf("unexpected image %+v", got)
	}

	dup := &domain.Image{OwnerID: alice.ID, Filename: "cat.png", StoragePath: img.StoragePath}
	if err := db.Images().Add(ctx, dup); !errors.Is(err, domain.ErrDuplicateFilename) {
		t.Fatalf("expected ErrDuplicateFilename, got %v", err)
	}

	if _, err := db.Images().FindByID(ctx, 9999); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
}

func TestImageRepository_ListSortAndFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	addImage(t, db, alice.ID, "dog.png")
	cat := addImage(t, db, alice.ID, "cat.png")
	addImage(t, db, alice.ID, "Zebra.png")
	addImage(t, db, bob.ID, "bird.png")

	asc, err := db.Images().List(ctx, alice.ID, domain.Sort{Field: domain.SortByFilename, Order: domain.SortAsc}, nil)
	if err != nil {
		t.Fatalf("List asc: %v", err)
	}
	if got := filenames(asc); got != "Zebra.png,cat.png,dog.png" {
		t.Fatalf("asc: got %s", got)
	}

	desc, err := db.Images().List(ctx, alice.ID, domain.Sort{Field: domain.SortByFilename, Order: domain.SortDesc}, nil)
	if err != nil {
		t.Fatalf("List desc: %v", err)
	}
	if got := filenames(desc); got != "dog.png,cat.png,Zebra.png" {
		t.Fatalf("desc: got %s", got)
	}

	filtered, err := db.Images().List(ctx, alice.ID, domain.DefaultSort, []int64{cat.ID})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if got := filenames(filtered); got != "cat.png" {
		t.Fatalf("filtered: got %s", got)
	}

	empty, err := db.Images().List(ctx, alice.ID, domain.DefaultSort, []int64{})
	if err != nil {
		t.Fatalf("List empty filter: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty filter to match nothing, got %s", filenames(empty))
	}
}

func TestImageRepository_Search(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	addImage(t, db, alice.ID, "Holiday-Beach.png")
	addImage(t, db, alice.ID, "a.b.png")
	addImage(t, db, alice.ID, "ÄRGER.png")

	tests := []struct {
		substring string
		want      string
	}{
		{"beach", "Holiday-Beach.png"},
		{".b", "a.b.png"},
		{"ärg", "ÄRGER.png"},
		{"", ""},
		{"missing", ""},
	}
	for _, tc := range tests {
		got, err := db.Images().Search(ctx, alice.ID, tc.substring)
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.substring, err)
		}
		if filenames(got) != tc.want {
			t.Fatalf("Search(%q): expected %q, got %q", tc.substring, tc.want, filenames(got))
		}
	}
}

func TestImageRepository_RenameAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	cat := addImage(t, db, alice.ID, "cat.png")
	addImage(t, db, alice.ID, "dog.png")
	images := db.Images()

	if err := images.Rename(ctx, cat.ID, "dog.png", domain.StoragePath(alice.ID, "dog.png")); !errors.Is(err, domain.ErrDuplicateFilename) {
		t.Fatalf("expected ErrDuplicateFilename, got %v", err)
	}
	if err := images.Rename(ctx, cat.ID, "kitten.png", domain.StoragePath(alice.ID, "kitten.png")); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	found, err := images.Search(ctx, alice.ID, "KITTEN")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if filenames(found) != "kitten.png" {
		t.Fatalf("expected renamed image to be searchable, got %q", filenames(found))
	}

	if err := images.Delete(ctx, cat.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := images.Delete(ctx, cat.ID); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
	if err := images.Rename(ctx, cat.ID, "x.png", "x"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound on rename, got %v", err)
	}
}

func TestLikeRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	likes := db.Likes()

	if liked, err := likes.IsLiked(ctx, 1, 1); err != nil || liked {
		t.Fatalf("expected not liked, got %v %v", liked, err)
	}
	if err := likes.Like(ctx, 2, 1); err != nil {
		t.Fatalf("Like: %v", err)
	}
	if err := likes.Like(ctx, 1, 1); err != nil {
		t.Fatalf("Like: %v", err)
	}
	if err := likes.Like(ctx, 1, 2); err != nil {
		t.Fatalf("Like other owner: %v", err)
	}
	if err := likes.Like(ctx, 1, 1); !errors.Is(err, domain.ErrLikeAlreadyExists) {
		t.Fatalf("expected ErrLikeAlreadyExists, got %v", err)
	}

	ids, err := likes.LikedImageIDs(ctx, 1)
	if err != nil {
		t.Fatalf("LikedImageIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("expected [1 2], got %v", ids)
	}

	if err := likes.Unlike(ctx, 2, 1); err != nil {
		t.Fatalf("Unlike: %v", err)
	}
	if err := likes.Unlike(ctx, 2, 1); !errors.Is(err, domain.ErrLikeNotFound) {
		t.Fatalf("expected ErrLikeNotFound, got %v", err)
	}

	if err := likes.DeleteAllForImage(ctx, 1); err != nil {
		t.Fatalf("DeleteAllForImage: %v", err)
	}
	for _, owner := range []int64{1, 2} {
		if liked, _ := likes.IsLiked(ctx, 1, owner); liked {
			t.Fatalf("expected image 1 unliked for owner %d after cascade", owner)
		}
	}
	if err := likes.DeleteAllForImage(ctx, 1); err != nil {
		t.Fatalf("DeleteAllForImage with nothing to delete: %v", err)
	}
}
